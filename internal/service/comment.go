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

// CommentService manages comments and one level of replies on any content
// entity. Comments are not activity-logged.
type CommentService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCommentService(db *gorm.DB, log *slog.Logger) *CommentService {
	return &CommentService{db: db, log: log}
}

type CommentInput struct {
	Body     string  `json:"body" validate:"required,min=1,max=400"`
	Schema   string  `json:"schema" validate:"required,oneof=destinations traditions stories"`
	SchemaID string  `json:"schemaId" validate:"required"`
	ParentID *string `json:"parentId"`
}

type UpdateCommentInput struct {
	Body string `json:"body" validate:"required,min=1,max=400"`
}

// List pages the top-level comments of one content entity, replies and
// commenter profiles included.
func (s *CommentService) List(ctx context.Context, ref domain.ContentRef, q ListQuery) ([]domain.Comment, Pagination, error) {
	if !ref.Valid() {
		return nil, Pagination{}, apperror.ValidationMsg("schemaId", "invalid content reference")
	}
	var (
		rows  []domain.Comment
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findContentTarget(tx, ref); err != nil {
			return err
		}
		query := tx.Model(&domain.Comment{}).
			Where(targetFilter(ref)+" = ? AND parent_id IS NULL", ref.ID)
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.
			Preload("User").
			Preload("Replies").
			Preload("Replies.User").
			Order(orderExpr(q, "created_at")).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.From(err)
	}
	return rows, NewPagination(q, total), nil
}

// Create attaches a comment to its target, or to a parent comment on the
// same target when ParentID is set. Replies to replies are flattened onto
// the top-level parent.
func (s *CommentService) Create(ctx context.Context, actor Actor, in CommentInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	ref := domain.ContentRef{Kind: domain.ContentKind(in.Schema), ID: in.SchemaID}
	if !ref.Valid() {
		return IDResult{}, apperror.ValidationMsg("schemaId", "invalid content reference")
	}
	comment := domain.Comment{Body: in.Body, UserID: actor.ID}
	comment.DestinationID, comment.TraditionID, comment.StoryID = targetColumns(ref)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findContentTarget(tx, ref); err != nil {
			return err
		}
		if in.ParentID != nil {
			var parent domain.Comment
			err := tx.Where(targetFilter(ref)+" = ? AND id = ?", ref.ID, *in.ParentID).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("comment")
			}
			if err != nil {
				return err
			}
			// One level of threading only.
			if parent.ParentID != nil {
				comment.ParentID = parent.ParentID
			} else {
				comment.ParentID = &parent.ID
			}
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: comment.ID}, nil
}

// Update edits the body. Only the commenter or an admin may edit.
func (s *CommentService) Update(ctx context.Context, actor Actor, id string, in UpdateCommentInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment domain.Comment
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("comment")
			}
			return err
		}
		if comment.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		comment.Body = in.Body
		return tx.Save(&comment).Error
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: id}, nil
}

// Delete removes a comment and its replies. Only the commenter or an admin.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment domain.Comment
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("comment")
			}
			return err
		}
		if comment.UserID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		if err := tx.Where("parent_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	return IDResult{ID: id}, nil
}
