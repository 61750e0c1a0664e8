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

// CategoryService manages the destination taxonomy. All mutations are
// admin-only; the router enforces that before calls reach here.
type CategoryService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCategoryService(db *gorm.DB, log *slog.Logger) *CategoryService {
	return &CategoryService{db: db, log: log}
}

// CategoryInput is the create/update payload.
type CategoryInput struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

var categorySortKeys = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
}

// ListOptions returns the query parsing rules for this resource. Categories
// are a small taxonomy, so the default page is wide.
func (s *CategoryService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 100, SortKeys: categorySortKeys}
}

// List returns a page of categories with the total-derived pagination
// summary. Count and fetch run in one transaction so they agree.
func (s *CategoryService) List(ctx context.Context, q ListQuery) ([]domain.Category, Pagination, error) {
	var (
		rows  []domain.Category
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Category{})
		if q.Search != "" {
			query = query.Where("LOWER(name) LIKE ?", like(q.Search))
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order(orderExpr(q, "created_at")).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.Internal(err)
	}
	return rows, NewPagination(q, total), nil
}

// Get returns one category by id.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var cat domain.Category
	err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("category")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &cat, nil
}

// GetBySlug is the public detail lookup for slug-based URLs.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var cat domain.Category
	err := s.db.WithContext(ctx).First(&cat, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("category")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &cat, nil
}

// Create inserts a category and its activity row. The slug is derived from
// the name and must be unique.
func (s *CategoryService) Create(ctx context.Context, actor Actor, in CategoryInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	cat := domain.Category{Name: in.Name, Slug: Slugify(in.Name)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Category{}).Where("slug = ?", cat.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("category")
		}
		if err := tx.Create(&cat).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "category", cat.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("category")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("category", string(domain.ActionCreate))
	return IDResult{ID: cat.ID}, nil
}

// Update renames a category; the slug is regenerated from the new name.
func (s *CategoryService) Update(ctx context.Context, actor Actor, id string, in CategoryInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat domain.Category
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("category")
			}
			return err
		}
		slug := Slugify(in.Name)
		var count int64
		if err := tx.Model(&domain.Category{}).
			Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("category")
		}
		cat.Name = in.Name
		cat.Slug = slug
		if err := tx.Save(&cat).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionUpdate, "category", cat.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("category")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("category", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

// Delete removes a category. Destinations referencing it keep their rows;
// deletion is refused while any still point here.
func (s *CategoryService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat domain.Category
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("category")
			}
			return err
		}
		var inUse int64
		if err := tx.Model(&domain.Destination{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return apperror.ValidationMsg("id", "category is still referenced by destinations")
		}
		if err := tx.Delete(&cat).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "category", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("category", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}
