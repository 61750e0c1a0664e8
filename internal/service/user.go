package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/observability/metrics"
	"github.com/pesona-id/pesona-backend/internal/validation"
)

// UserService manages profiles. Users edit themselves; admins edit anyone
// and are the only ones who may change roles.
type UserService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewUserService(db *gorm.DB, log *slog.Logger) *UserService {
	return &UserService{db: db, log: log}
}

type UpdateUserInput struct {
	Name           *string `json:"name" validate:"omitempty,min=3,max=30,alphanum"`
	Email          *string `json:"email" validate:"omitempty,email"`
	FullName       *string `json:"fullName" validate:"omitempty,max=50"`
	Bio            *string `json:"bio" validate:"omitempty,max=200"`
	Password       *string `json:"password" validate:"omitempty,min=8,max=64"`
	ProfileImageID *string `json:"profileImageId"`
	Role           *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

// UserProfile is the public projection with authored-content counts.
type UserProfile struct {
	domain.User
	Counts struct {
		Stories   int64 `json:"stories"`
		Comments  int64 `json:"comments"`
		Likes     int64 `json:"likes"`
		Bookmarks int64 `json:"bookmarks"`
	} `json:"counts"`
}

var userSortKeys = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
}

func (s *UserService) ListOptions() ListOptions {
	return ListOptions{DefaultLimit: 10, SortKeys: userSortKeys, AllowRole: true}
}

// List is the admin user index with role filter; search matches the handle,
// email and full name.
func (s *UserService) List(ctx context.Context, q ListQuery) ([]domain.User, Pagination, error) {
	var (
		rows  []domain.User
		total int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.User{})
		if q.Search != "" {
			p := like(q.Search)
			query = query.Where(
				"LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(COALESCE(full_name, '')) LIKE ?",
				p, p, p)
		}
		if q.Role != "" {
			query = query.Where("role = ?", q.Role)
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

// Get looks a profile up by handle and attaches activity counts.
func (s *UserService) Get(ctx context.Context, name string) (*UserProfile, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	profile := UserProfile{User: user}
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Story{}).Where("author_id = ?", user.ID).Count(&profile.Counts.Stories).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Comment{}).Where("user_id = ?", user.ID).Count(&profile.Counts.Comments).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Like{}).Where("user_id = ?", user.ID).Count(&profile.Counts.Likes).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	if err := db.Model(&domain.Bookmark{}).Where("user_id = ?", user.ID).Count(&profile.Counts.Bookmarks).Error; err != nil {
		return nil, apperror.Internal(err)
	}
	return &profile, nil
}

// Update applies the non-nil fields to the user named by handle. Only the
// user themselves or an admin may call this; only admins change roles.
func (s *UserService) Update(ctx context.Context, actor Actor, name string, in UpdateUserInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	var userID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user")
			}
			return err
		}
		if user.ID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		if in.Role != nil && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		if in.Name != nil && *in.Name != user.Name {
			var count int64
			if err := tx.Model(&domain.User{}).
				Where("name = ? AND id <> ?", *in.Name, user.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperror.AlreadyExists("user")
			}
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = in.Email
		}
		if in.FullName != nil {
			user.FullName = in.FullName
		}
		if in.Bio != nil {
			user.Bio = in.Bio
		}
		if in.ProfileImageID != nil {
			user.ProfileImageID = in.ProfileImageID
		}
		if in.Role != nil {
			user.Role = domain.Role(*in.Role)
		}
		if in.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.Password = string(hash)
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		userID = user.ID
		return recordActivity(tx, domain.ActionUpdate, "user", user.ID, actor.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("user")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("user", string(domain.ActionUpdate))
	return IDResult{ID: userID}, nil
}

// Delete removes an account with everything it owns: stories (and their
// dependents), comments, likes and bookmarks.
func (s *UserService) Delete(ctx context.Context, actor Actor, name string) (IDResult, error) {
	var userID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user")
			}
			return err
		}
		if user.ID != actor.ID && !actor.IsAdmin() {
			return apperror.Forbidden()
		}
		userID = user.ID

		storyIDs := tx.Model(&domain.Story{}).Select("id").Where("author_id = ?", user.ID)
		if err := tx.Where("story_id IN (?)", storyIDs).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id IN (?)", storyIDs).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("story_id IN (?)", storyIDs).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&domain.Story{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&domain.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id IN (?)",
			tx.Model(&domain.Comment{}).Select("id").Where("user_id = ?", user.ID),
		).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionDelete, "user", user.ID, actor.ID)
	})
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	metrics.ObserveContentMutation("user", string(domain.ActionDelete))
	return IDResult{ID: userID}, nil
}
