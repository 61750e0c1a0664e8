package service

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/validation"
)

// LikeService records at most one like per user per content entity. Likes
// are not activity-logged.
type LikeService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewLikeService(db *gorm.DB, log *slog.Logger) *LikeService {
	return &LikeService{db: db, log: log}
}

// InteractionInput names the target of a like or bookmark.
type InteractionInput struct {
	Schema   string `json:"schema" validate:"required,oneof=destinations traditions stories"`
	SchemaID string `json:"schemaId" validate:"required"`
}

func (in InteractionInput) ref() domain.ContentRef {
	return domain.ContentRef{Kind: domain.ContentKind(in.Schema), ID: in.SchemaID}
}

// Create likes a content entity. The duplicate pre-check yields the conflict
// error; the composite unique index backstops races.
func (s *LikeService) Create(ctx context.Context, actor Actor, in InteractionInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	ref := in.ref()
	if !ref.Valid() {
		return IDResult{}, apperror.ValidationMsg("schemaId", "invalid content reference")
	}
	row := domain.Like{UserID: actor.ID}
	row.DestinationID, row.TraditionID, row.StoryID = targetColumns(ref)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findContentTarget(tx, ref); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Like{}).
			Where("user_id = ? AND "+targetFilter(ref)+" = ?", actor.ID, ref.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("like")
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("like")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: row.ID}, nil
}

// Delete removes a like by id. Only its owner or an admin.
func (s *LikeService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.Like
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("like")
			}
			return err
		}
		if row.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: id}, nil
}
