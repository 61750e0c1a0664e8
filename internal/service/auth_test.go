package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/security/audit"
	"github.com/pesona-id/pesona-backend/internal/security/auth"
)

func newAuthService(t *testing.T, db *gorm.DB) (*AuthService, *auth.TokenManager) {
	t.Helper()
	tm := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	log := testLogger()
	return NewAuthService(db, tm, audit.NewLogger(log), log), tm
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc, tm := newAuthService(t, db)

	res, err := svc.Register(context.Background(), RegisterInput{Name: "wanderer", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)

	// Stored password is hashed.
	var user domain.User
	require.NoError(t, db.First(&user, "id = ?", res.ID).Error)
	assert.NotEqual(t, "supersecret", user.Password)
	assert.Equal(t, domain.RoleUser, user.Role)

	login, err := svc.Login(context.Background(), LoginInput{Name: "wanderer", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	claims, err := tm.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID, claims.UserID)
	assert.Equal(t, "wanderer", claims.Name)
	assert.Equal(t, "USER", claims.Role)

	// Refresh token persisted for the refresh flow.
	require.NoError(t, db.First(&user, "id = ?", res.ID).Error)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, login.RefreshToken, *user.RefreshToken)
}

func TestRegisterDuplicateHandle(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "duplicate", Password: "supersecret"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), RegisterInput{Name: "duplicate", Password: "othersecret"})
	assert.True(t, apperror.IsKind(err, apperror.KindAlreadyExists))
	assert.EqualError(t, apperror.From(err), "user already exists.")
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "x", Password: "short"})
	require.Error(t, err)
	appErr := apperror.From(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 2)
}

func TestLoginWrongCredentials(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "someone", Password: "supersecret"})
	require.NoError(t, err)

	// Unknown handle and wrong password read the same.
	_, err = svc.Login(context.Background(), LoginInput{Name: "nobody", Password: "supersecret"})
	assert.EqualError(t, apperror.From(err), "wrong username or password")
	_, err = svc.Login(context.Background(), LoginInput{Name: "someone", Password: "wrongsecret"})
	assert.EqualError(t, apperror.From(err), "wrong username or password")
}

func TestRefreshFlow(t *testing.T) {
	db := newTestDB(t)
	svc, tm := newAuthService(t, db)

	res, err := svc.Register(context.Background(), RegisterInput{Name: "refresher", Password: "supersecret"})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), LoginInput{Name: "refresher", Password: "supersecret"})
	require.NoError(t, err)

	accessToken, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	claims, err := tm.ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, res.ID, claims.UserID)

	// Garbage token is a permission failure, not a 500.
	_, err = svc.Refresh(context.Background(), "not-a-token")
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	// A token that no longer matches the stored one is rejected.
	actor := Actor{ID: res.ID, Name: "refresher", Role: domain.RoleUser}
	require.NoError(t, svc.Logout(context.Background(), actor))
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestMe(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	res, err := svc.Register(context.Background(), RegisterInput{Name: "myself", Password: "supersecret"})
	require.NoError(t, err)

	user, err := svc.Me(context.Background(), Actor{ID: res.ID, Name: "myself", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "myself", user.Name)

	_, err = svc.Me(context.Background(), Actor{ID: domain.NewID(), Name: "ghost", Role: domain.RoleUser})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
