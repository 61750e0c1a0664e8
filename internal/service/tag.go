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

// TagService manages tags directly. Tags are also created implicitly when a
// destination or tradition references an unknown name; see resolveTags.
type TagService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTagService(db *gorm.DB, log *slog.Logger) *TagService {
	return &TagService{db: db, log: log}
}

type TagInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

var tagSortKeys = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"popular": "((SELECT COUNT(*) FROM destination_tags WHERE destination_tags.tag_id = tags.id) + " +
		"(SELECT COUNT(*) FROM tradition_tags WHERE tradition_tags.tag_id = tags.id))",
}

func (s *TagService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 100, SortKeys: tagSortKeys}
}

func (s *TagService) List(ctx context.Context, q ListQuery) ([]domain.Tag, Pagination, error) {
	var (
		rows  []domain.Tag
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Tag{})
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

func (s *TagService) Create(ctx context.Context, actor Actor, in TagInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	tag := domain.Tag{Name: in.Name, Slug: Slugify(in.Name)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Tag{}).Where("slug = ?", tag.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("tag")
		}
		if err := tx.Create(&tag).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "tag", tag.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("tag")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tag", string(domain.ActionCreate))
	return IDResult{ID: tag.ID}, nil
}

func (s *TagService) Update(ctx context.Context, actor Actor, id string, in TagInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag domain.Tag
		if err := tx.First(&tag, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("tag")
			}
			return err
		}
		slug := Slugify(in.Name)
		var count int64
		if err := tx.Model(&domain.Tag{}).
			Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("tag")
		}
		tag.Name = in.Name
		tag.Slug = slug
		if err := tx.Save(&tag).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionUpdate, "tag", tag.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("tag")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tag", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

// Delete removes a tag and its join rows.
func (s *TagService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag domain.Tag
		if err := tx.First(&tag, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("tag")
			}
			return err
		}
		if err := tx.Exec("DELETE FROM destination_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM tradition_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&tag).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "tag", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("tag", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}
