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

// TraditionService manages cultural tradition articles. Traditions carry
// tags but no category or district.
type TraditionService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTraditionService(db *gorm.DB, log *slog.Logger) *TraditionService {
	return &TraditionService{db: db, log: log}
}

type TraditionInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=400"`
	Content     string   `json:"content" validate:"required,min=10"`
	CoverID     *string  `json:"coverId"`
	IsPublished *bool    `json:"isPublished"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=2,max=100"`
}

type UpdateTraditionInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=3,max=400"`
	Content     *string  `json:"content" validate:"omitempty,min=10"`
	CoverID     *string  `json:"coverId"`
	IsPublished *bool    `json:"isPublished"`
	Tags        []string `json:"tags" validate:"omitempty,max=10,dive,min=2,max=100"`
}

type TraditionDetail struct {
	domain.Tradition
	Counts CountSummary `json:"counts"`
}

var traditionSortKeys = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"name":       "name",
	"liked":      "(SELECT COUNT(*) FROM likes WHERE likes.tradition_id = traditions.id)",
	"bookmarked": "(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.tradition_id = traditions.id)",
	"popular": "((SELECT COUNT(*) FROM likes WHERE likes.tradition_id = traditions.id) + " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.tradition_id = traditions.id))",
}

func (s *TraditionService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 10, SortKeys: traditionSortKeys, AllowPublished: true}
}

// List pages traditions; search matches name, content and tag names.
func (s *TraditionService) List(ctx context.Context, q ListQuery) ([]domain.Tradition, Pagination, error) {
	var (
		rows  []domain.Tradition
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Tradition{})
		if q.Search != "" {
			p := like(q.Search)
			query = query.Where(
				`LOWER(traditions.name) LIKE ?
				OR LOWER(traditions.content) LIKE ?
				OR traditions.id IN (
					SELECT tradition_tags.tradition_id FROM tradition_tags
					JOIN tags ON tags.id = tradition_tags.tag_id
					WHERE LOWER(tags.name) LIKE ?)`,
				p, p, p)
		}
		if q.IsPublished != nil {
			query = query.Where("traditions.is_published = ?", *q.IsPublished)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Preload("Tags").
			Order(orderExpr(q, "created_at")).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.Internal(err)
	}
	return rows, NewPagination(q, total), nil
}

func (s *TraditionService) Get(ctx context.Context, id string) (*TraditionDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var trad domain.Tradition
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Comments", "parent_id IS NULL").
		Preload("Comments.User").
		Preload("Comments.Replies").
		Preload("Comments.Replies.User").
		First(&trad, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("tradition")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	var c CountSummary
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Like{}).Where("tradition_id = ?", id).Count(&c.Likes).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Bookmark{}).Where("tradition_id = ?", id).Count(&c.Bookmarks).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Comment{}).Where("tradition_id = ?", id).Count(&c.Comments).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	return &TraditionDetail{Tradition: trad, Counts: c}, nil
}

func (s *TraditionService) GetBySlug(ctx context.Context, slug string) (*TraditionDetail, error) {
	var trad domain.Tradition
	err := s.db.WithContext(ctx).Select("id").First(&trad, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("tradition")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, trad.ID)
}

func (s *TraditionService) Create(ctx context.Context, actor Actor, in TraditionInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	trad := domain.Tradition{
		Name:    in.Name,
		Slug:    Slugify(in.Name),
		Content: in.Content,
		CoverID: in.CoverID,
	}
	if in.IsPublished != nil {
		trad.IsPublished = *in.IsPublished
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Tradition{}).Where("slug = ?", trad.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("tradition")
		}
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}
		trad.Tags = tags
		if err := tx.Create(&trad).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "tradition", trad.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("tradition")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tradition", string(domain.ActionCreate))
	return IDResult{ID: trad.ID}, nil
}

func (s *TraditionService) Update(ctx context.Context, actor Actor, id string, in UpdateTraditionInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trad domain.Tradition
		if err := tx.First(&trad, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("tradition")
			}
			return err
		}
		if in.Name != nil {
			slug := Slugify(*in.Name)
			var count int64
			if err := tx.Model(&domain.Tradition{}).
				Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperror.AlreadyExists("tradition")
			}
			trad.Name = *in.Name
			trad.Slug = slug
		}
		if in.Content != nil {
			trad.Content = *in.Content
		}
		if in.CoverID != nil {
			trad.CoverID = in.CoverID
		}
		if in.IsPublished != nil {
			trad.IsPublished = *in.IsPublished
		}
		if err := tx.Save(&trad).Error; err != nil {
			return err
		}
		if in.Tags != nil {
			tags, err := resolveTags(tx, in.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&trad).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return recordActivity(tx, domain.ActionUpdate, "tradition", trad.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("tradition")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tradition", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

func (s *TraditionService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trad domain.Tradition
		if err := tx.First(&trad, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("tradition")
			}
			return err
		}
		if err := tx.Where("tradition_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tradition_id = ?", id).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tradition_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&trad).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&trad).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "tradition", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tradition", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}
