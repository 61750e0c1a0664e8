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
	"github.com/pesona-id/pesona-backend/internal/security/audit"
	"github.com/pesona-id/pesona-backend/internal/security/auth"
	"github.com/pesona-id/pesona-backend/internal/validation"
)

// AuthService implements registration, login and the refresh flow. The
// issued refresh token is persisted on the user row; refresh only succeeds
// while the presented token matches the stored one, so logout and re-login
// both invalidate older refresh tokens.
type AuthService struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	audit  *audit.Logger
	log    *slog.Logger
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager, auditLog *audit.Logger, log *slog.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, audit: auditLog, log: log}
}

type RegisterInput struct {
	Name     string  `json:"name" validate:"required,min=3,max=30,alphanum"`
	Password string  `json:"password" validate:"required,min=8,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"fullName" validate:"omitempty,max=50"`
}

type LoginInput struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries both tokens; the handler moves the refresh token into
// an httpOnly cookie and never returns it in the body.
type LoginResult struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"-"`
	User         domain.User `json:"user"`
}

// Register creates an account with a bcrypt-hashed password. The handle is
// checked first so the common collision gets the schema-named conflict
// error; the unique index backstops races.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (IDResult, error) {
	if err := validation.Struct(in); err != nil {
		return IDResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return IDResult{}, apperror.Internal(err)
	}
	user := domain.User{
		Name:     in.Name,
		Password: string(hash),
		Email:    in.Email,
		FullName: in.FullName,
		Role:     domain.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("name = ?", in.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.AlreadyExists("user")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return recordActivity(tx, domain.ActionCreate, "user", user.ID, user.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return IDResult{}, apperror.AlreadyExists("user")
	}
	if err != nil {
		return IDResult{}, apperror.From(err)
	}
	s.audit.LogRegister(ctx, user.ID)
	metrics.ObserveContentMutation("user", string(domain.ActionCreate))
	return IDResult{ID: user.ID}, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown handle
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "name = ?", in.Name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.ObserveAuthAttempt("login", "failure")
		return nil, apperror.InvalidCredentials()
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		s.audit.LogLogin(ctx, user.ID, "failure")
		metrics.ObserveAuthAttempt("login", "failure")
		return nil, apperror.InvalidCredentials()
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("refresh_token", refreshToken).Error; err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.LogLogin(ctx, user.ID, "success")
	metrics.ObserveAuthAttempt("login", "success")
	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

// Refresh exchanges a valid refresh token for a new access token. Expired
// tokens are reported distinctly; any other defect, including a token that
// no longer matches the stored one, is a permission failure.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.Unauthorized("")
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		metrics.ObserveAuthAttempt("refresh", "failure")
		if errors.Is(err, auth.ErrTokenExpired) {
			return "", apperror.Unauthorized("token has expired")
		}
		return "", apperror.Forbidden()
	}
	var user domain.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.ObserveAuthAttempt("refresh", "failure")
		return "", apperror.Forbidden()
	}
	if err != nil {
		return "", apperror.Internal(err)
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		metrics.ObserveAuthAttempt("refresh", "failure")
		return "", apperror.Forbidden()
	}
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Name, string(user.Role))
	if err != nil {
		return "", apperror.Internal(err)
	}
	metrics.ObserveAuthAttempt("refresh", "success")
	return accessToken, nil
}

// Logout discards the stored refresh token so the cookie becomes useless.
func (s *AuthService) Logout(ctx context.Context, actor Actor) error {
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", actor.ID).Update("refresh_token", nil).Error
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// Me returns the calling actor's own account row.
func (s *AuthService) Me(ctx context.Context, actor Actor) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", actor.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &user, nil
}
