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

// StoryService manages user-authored stories. The author is always the
// calling actor; update and delete require the author or an admin.
type StoryService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewStoryService(db *gorm.DB, log *slog.Logger) *StoryService {
	return &StoryService{db: db, log: log}
}

type StoryInput struct {
	Name        string  `json:"name" validate:"required,min=3,max=200"`
	Content     string  `json:"content" validate:"required,min=10"`
	CoverID     *string `json:"coverId"`
	IsPublished *bool   `json:"isPublished"`
}

type UpdateStoryInput struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=200"`
	Content     *string `json:"content" validate:"omitempty,min=10"`
	CoverID     *string `json:"coverId"`
	IsPublished *bool   `json:"isPublished"`
}

type StoryDetail struct {
	domain.Story
	Counts CountSummary `json:"counts"`
}

var storySortKeys = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"name":       "name",
	"liked":      "(SELECT COUNT(*) FROM likes WHERE likes.story_id = stories.id)",
	"bookmarked": "(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.story_id = stories.id)",
	"popular": "((SELECT COUNT(*) FROM likes WHERE likes.story_id = stories.id) + " +
		"(SELECT COUNT(*) FROM bookmarks WHERE bookmarks.story_id = stories.id))",
}

func (s *StoryService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 10, SortKeys: storySortKeys, AllowPublished: true}
}

// List pages stories with authors preloaded; search matches name, content
// and the author handle.
func (s *StoryService) List(ctx context.Context, q ListQuery) ([]domain.Story, Pagination, error) {
	var (
		rows  []domain.Story
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Story{})
		if q.Search != "" {
			p := like(q.Search)
			query = query.Where(
				`LOWER(stories.name) LIKE ?
				OR LOWER(stories.content) LIKE ?
				OR stories.author_id IN (SELECT id FROM users WHERE LOWER(name) LIKE ?)`,
				p, p, p)
		}
		if q.IsPublished != nil {
			query = query.Where("stories.is_published = ?", *q.IsPublished)
		}
		if err := query.Count(&total).Error; err != nil {
			return err
		}
		return query.Preload("Author").
			Order(orderExpr(q, "created_at")).
			Limit(q.Limit).Offset(q.Offset()).Find(&rows).Error
	})
	if err != nil {
		return nil, Pagination{}, apperror.Internal(err)
	}
	return rows, NewPagination(q, total), nil
}

func (s *StoryService) Get(ctx context.Context, id string) (*StoryDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var story domain.Story
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", "parent_id IS NULL").
		Preload("Comments.User").
		Preload("Comments.Replies").
		Preload("Comments.Replies.User").
		First(&story, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("story")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	var c CountSummary
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Like{}).Where("story_id = ?", id).Count(&c.Likes).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Bookmark{}).Where("story_id = ?", id).Count(&c.Bookmarks).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Comment{}).Where("story_id = ?", id).Count(&c.Comments).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	return &StoryDetail{Story: story, Counts: c}, nil
}

func (s *StoryService) GetBySlug(ctx context.Context, slug string) (*StoryDetail, error) {
	var story domain.Story
	err := s.db.WithContext(ctx).Select("id").First(&story, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("story")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return s.Get(ctx, story.ID)
}

func (s *StoryService) Create(ctx context.Context, actor Actor, in StoryInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	story := domain.Story{
		Name:     in.Name,
		Slug:     Slugify(in.Name),
		Content:  in.Content,
		CoverID:  in.CoverID,
		AuthorID: actor.ID,
	}
	if in.IsPublished != nil {
		story.IsPublished = *in.IsPublished
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Story{}).Where("slug = ?", story.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("story")
		}
		if err := tx.Create(&story).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "story", story.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("story")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("story", string(domain.ActionCreate))
	return IDResult{ID: story.ID}, nil
}

func (s *StoryService) Update(ctx context.Context, actor Actor, id string, in UpdateStoryInput) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story domain.Story
		if err := tx.First(&story, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("story")
			}
			return err
		}
		if story.AuthorID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		if in.Name != nil {
			slug := Slugify(*in.Name)
			var count int64
			if err := tx.Model(&domain.Story{}).
				Where("slug = ? AND id <> ?", slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperror.AlreadyExists("story")
			}
			story.Name = *in.Name
			story.Slug = slug
		}
		if in.Content != nil {
			story.Content = *in.Content
		}
		if in.CoverID != nil {
			story.CoverID = in.CoverID
		}
		if in.IsPublished != nil {
			story.IsPublished = *in.IsPublished
		}
		if err := tx.Save(&story).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionUpdate, "story", story.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("story")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("story", string(domain.ActionUpdate))
	return IDResult{ID: id}, nil
}

func (s *StoryService) Delete(ctx context.Context, actor Actor, id string) (IDResult, error) {
	if err := validateID(id); err != nil {
		return IDResult{}, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story domain.Story
		if err := tx.First(&story, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("story")
			}
			return err
		}
		if story.AuthorID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		if err := tx.Where("story_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id = ?", id).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&story).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "story", id, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("story", string(domain.ActionDelete))
	return IDResult{ID: id}, nil
}
