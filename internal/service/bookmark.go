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

// BookmarkService mirrors LikeService for saved content, plus a listing of
// the caller's own bookmarks.
type BookmarkService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewBookmarkService(db *gorm.DB, log *slog.Logger) *BookmarkService {
	return &BookmarkService{db: db, log: log}
}

func (s *BookmarkService) Create(ctx context.Context, actor Actor, in InteractionInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	ref := in.ref()
	if !ref.Valid() {
		return IDResult{}, apperror.ValidationMsg("schemaId", "invalid content reference")
	}
	row := domain.Bookmark{UserID: actor.ID}
	row.DestinationID, row.TraditionID, row.StoryID = targetColumns(ref)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findContentTarget(tx, ref); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Bookmark{}).
			Where("user_id = ? AND "+targetFilter(ref)+" = ?", actor.ID, ref.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("bookmark")
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("bookmark")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: row.ID}, nil
}

// List pages the calling user's bookmarks, newest first.
func (s *BookmarkService) List(ctx context.Context, actor Actor, q ListQuery) ([]domain.Bookmark, Pagination, error) {
	var (
		rows  []domain.Bookmark
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Bookmark{}).Where("user_id = ?", actor.ID)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Order("created_at " + q.OrderBy).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.Internal(err)
	}
	return rows, NewPagination(q, total), nil
}

func (s *BookmarkService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.Bookmark
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("bookmark")
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
