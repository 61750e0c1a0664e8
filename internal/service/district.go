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

// DistrictService manages the regional taxonomy.
type DistrictService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDistrictService(db *gorm.DB, log *slog.Logger) *DistrictService {
	return &DistrictService{db: db, log: log}
}

// DistrictInput is the create payload; UpdateDistrictInput carries partial
// changes.
type DistrictInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CoverID     *string `json:"coverId"`
}

type UpdateDistrictInput struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	CoverID     *string `json:"coverId"`
}

var districtSortKeys = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"popular":   "(SELECT COUNT(*) FROM destinations WHERE destinations.district_id = districts.id)",
}

func (s *DistrictService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 100, SortKeys: districtSortKeys}
}

// List pages districts; search matches name and description.
func (s *DistrictService) List(ctx context.Context, q ListQuery) ([]domain.District, Pagination, error) {
	var (
		rows  []domain.District
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.District{})
		if q.Search != "" {
			p := like(q.Search)
			query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", p, p)
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

// Get returns one district by id.
func (s *DistrictService) Get(ctx context.Context, id string) (*domain.District, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var d domain.District
	err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("district")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &d, nil
}

// GetBySlug is the public detail lookup for slug-based URLs.
func (s *DistrictService) GetBySlug(ctx context.Context, slug string) (*domain.District, error) {
	var d domain.District
	err := s.db.WithContext(ctx).First(&d, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("district")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &d, nil
}

func (s *DistrictService) Create(ctx context.Context, actor Actor, in DistrictInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	d := domain.District{
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		CoverID:     in.CoverID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.District{}).Where("slug = ?", d.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("district")
		}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "district", d.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("district")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("district", string(domain.ActionCreate))
	return IDResult{ID: d.ID}, nil
}

// Update applies the non-nil fields; renaming regenerates the slug.
func (s *DistrictService) Update(ctx context.Context, actor Actor, id string, in UpdateDistrictInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d domain.District
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("district")
			}
			return err
		}
		if in.Name != nil {
			slug := Slugify(*in.Name)
			var count int64
			if err := tx.Model(&domain.District{}).
				Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperror.AlreadyExists("district")
			}
			d.Name = *in.Name
			d.Slug = slug
		}
		if in.Description != nil {
			d.Description = in.Description
		}
		if in.CoverID != nil {
			d.CoverID = in.CoverID
		}
		if err := tx.Save(&d).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionUpdate, "district", d.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("district")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("district", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

func (s *DistrictService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d domain.District
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("district")
			}
			return err
		}
		var inUse int64
		if err := tx.Model(&domain.Destination{}).Where("district_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return apperror.ValidationMsg("id", "district is still referenced by destinations")
		}
		if err := tx.Delete(&d).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "district", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("district", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}
