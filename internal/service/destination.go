package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/observability/metrics"
	"github.com/pesona-id/pesona-backend/internal/validation"
)

// DestinationService manages the primary content entity, including its
// category/district references and tag associations.
type DestinationService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDestinationService(db *gorm.DB, log *slog.Logger) *DestinationService {
	return &DestinationService{db: db, log: log}
}

type DestinationInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=200"`
	Content     *string  `json:"content"`
	Address     *string  `json:"address" validate:"omitempty,max=300"`
	MapURL      *string  `json:"mapUrl" validate:"omitempty,url"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	CoverID     *string  `json:"coverId"`
	IsPublished *bool    `json:"isPublished"`
	CategoryID  string   `json:"categoryId" validate:"required"`
	DistrictID  string   `json:"districtId" validate:"required"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=2,max=100"`
}

type UpdateDestinationInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=3,max=200"`
	Content     *string  `json:"content"`
	Address     *string  `json:"address" validate:"omitempty,max=300"`
	MapURL      *string  `json:"mapUrl" validate:"omitempty,url"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	CoverID     *string  `json:"coverId"`
	IsPublished *bool    `json:"isPublished"`
	CategoryID  *string  `json:"categoryId"`
	DistrictID  *string  `json:"districtId"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=2,max=100"`
}

// DestinationDetail is the single-entity projection with relation counts.
type DestinationDetail struct {
	domain.Destination
	Counts CountSummary `json:"counts"`
}

// Derived sort keys rank by interaction counts. Correlated subqueries keep
// the expressions portable across postgres and sqlite.
var destinationSortKeys = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"name":       "name",
	"price":      "price",
	"liked":      "(SELECT COUNT(*) FROM likes WHERE likes.destination_id = destinations.id)",
	"bookmarked": "(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.destination_id = destinations.id)",
	"popular": "((SELECT COUNT(*) FROM likes WHERE likes.destination_id = destinations.id) + " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.destination_id = destinations.id))",
}

func (s *DestinationService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 10, SortKeys: destinationSortKeys, AllowPublished: true}
}

// List pages destinations with their taxonomy preloaded. Search spans the
// destination name and address plus related category slug, district slug and
// tag names.
func (s *DestinationService) List(ctx context.Context, q ListQuery) ([]domain.Destination, Pagination, error) {
	var (
		rows  []domain.Destination
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Destination{})
		if q.Search != "" {
			p := like(q.Search)
			query = query.Where(
				`LOWER(destinations.name) LIKE ?
				OR LOWER(COALESCE(destinations.address, '')) LIKE ?
				OR destinations.category_id IN (SELECT id FROM categories WHERE LOWER(slug) LIKE ?)
				OR destinations.district_id IN (SELECT id FROM districts WHERE LOWER(slug) LIKE ?)
				OR destinations.id IN (
					SELECT destination_tags.destination_id FROM destination_tags
					JOIN tags ON tags.id = destination_tags.tag_id
					WHERE LOWER(tags.name) LIKE ?)`,
				p, p, p, p, p)
		}
		if q.IsPublished != nil {
			query = query.Where("destinations.is_published = ?", *q.IsPublished)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.
			Preload("Category").Preload("District").Preload("Tags").
			Order(orderExpr(q, "created_at")).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.Internal(err)
	}
	return rows, NewPagination(q, total), nil
}

// Get returns the full detail projection: taxonomy, tags, the top-level
// comment thread with one level of replies, and interaction counts.
func (s *DestinationService) Get(ctx context.Context, id string) (*DestinationDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var dest domain.Destination
	err := s.db.WithContext(ctx).
		Preload("Category").Preload("District").Preload("Tags").
		Preload("Comments", "parent_id IS NULL").
		Preload("Comments.User").
		Preload("Comments.Replies").
		Preload("Comments.Replies.User").
		First(&dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("destination")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	counts, err := s.counts(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &DestinationDetail{Destination: dest, Counts: counts}, nil
}

// GetBySlug is the public detail lookup for slug-based URLs.
func (s *DestinationService) GetBySlug(ctx context.Context, slug string) (*DestinationDetail, error) {
	var dest domain.Destination
	err := s.db.WithContext(ctx).Select("id").First(&dest, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("destination")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, dest.ID)
}

func (s *DestinationService) counts(ctx context.Context, id string) (CountSummary, error) {
	var c CountSummary
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Like{}).Where("destination_id = ?", id).Count(&c.Likes).Error; err != nil {
		return c, err
	}
	if err := db.Model(&domain.Bookmark{}).Where("destination_id = ?", id).Count(&c.Bookmarks).Error; err != nil {
		return c, err
	}
	if err := db.Model(&domain.Comment{}).Where("destination_id = ?", id).Count(&c.Comments).Error; err != nil {
		return c, err
	}
	return c, nil
}

// Create inserts a destination with resolved tags. The referenced category
// and district must exist.
func (s *DestinationService) Create(ctx context.Context, actor Actor, in DestinationInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	dest := domain.Destination{
		Name:       in.Name,
		Slug:       Slugify(in.Name),
		Content:    in.Content,
		Address:    in.Address,
		MapURL:     in.MapURL,
		Price:      in.Price,
		CoverID:    in.CoverID,
		CategoryID: in.CategoryID,
		DistrictID: in.DistrictID,
	}
	if in.IsPublished != nil {
		dest.IsPublished = *in.IsPublished
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := firstExists(tx, &domain.Category{}, in.CategoryID, "category"); err != nil {
			return err
		}
		if err := firstExists(tx, &domain.District{}, in.DistrictID, "district"); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Destination{}).Where("slug = ?", dest.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("destination")
		}
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		dest.Tags = tags
		if err := tx.Create(&dest).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "destination", dest.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("destination")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("destination", string(domain.ActionCreate))
	return IDResult{ID: dest.ID}, nil
}

// Update applies the non-nil fields. Renaming regenerates the slug; a
// non-nil Tags slice replaces the whole association.
func (s *DestinationService) Update(ctx context.Context, actor Actor, id string, in UpdateDestinationInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dest domain.Destination
		if err := tx.First(&dest, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("destination")
			}
			return err
		}
		if in.Name != nil {
			slug := Slugify(*in.Name)
			var count int64
			if err := tx.Model(&domain.Destination{}).
				Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperror.AlreadyExists("destination")
			}
			dest.Name = *in.Name
			dest.Slug = slug
		}
		if in.CategoryID != nil {
			if err := firstExists(tx, &domain.Category{}, *in.CategoryID, "category"); err != nil {
				return err
			}
			dest.CategoryID = *in.CategoryID
		}
		if in.DistrictID != nil {
			if err := firstExists(tx, &domain.District{}, *in.DistrictID, "district"); err != nil {
				return err
			}
			dest.DistrictID = *in.DistrictID
		}
		if in.Content != nil {
			dest.Content = in.Content
		}
		if in.Address != nil {
			dest.Address = in.Address
		}
		if in.MapURL != nil {
			dest.MapURL = in.MapURL
		}
		if in.Price != nil {
			dest.Price = in.Price
		}
		if in.CoverID != nil {
			dest.CoverID = in.CoverID
		}
		if in.IsPublished != nil {
			dest.IsPublished = *in.IsPublished
		}
		if err := tx.Save(&dest).Error; err != nil {
			return err
		}
		if in.Tags != nil {
			tags, err := resolveTags(tx, in.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&dest).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return recordActivity(tx, domain.ActionUpdate, "destination", dest.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("destination")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("destination", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

// Delete removes a destination and every dependent row: interactions,
// comments (replies included) and tag join rows.
func (s *DestinationService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dest domain.Destination
		if err := tx.First(&dest, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("destination")
			}
			return err
		}
		if err := tx.Where("destination_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("destination_id = ?", id).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("destination_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&dest).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&dest).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "destination", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("destination", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}

// firstExists verifies a referenced row exists, mapping absence to the
// schema-named not-found error.
func firstExists(tx *gorm.DB, model any, id, schema string) error {
	err := tx.Select("id").First(model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(schema)
	}
	return err
}
