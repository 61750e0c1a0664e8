package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/security/audit"
	"github.com/pesona-id/pesona-backend/internal/security/auth"
	"github.com/pesona-id/pesona-backend/internal/service"
	"github.com/pesona-id/pesona-backend/pkg/config"
)

type apiTest struct {
	db  *gorm.DB
	mux *http.ServeMux
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Environment:     "test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
	tm := auth.NewTokenManager("test-access", "test-refresh", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	svcs := Services{
		Auth:         service.NewAuthService(db, tm, audit.NewLogger(log), log),
		Users:        service.NewUserService(db, log),
		Categories:   service.NewCategoryService(db, log),
		Districts:    service.NewDistrictService(db, log),
		Tags:         service.NewTagService(db, log),
		Destinations: service.NewDestinationService(db, log),
		Traditions:   service.NewTraditionService(db, log),
		Stories:      service.NewStoryService(db, log),
		Comments:     service.NewCommentService(db, log),
		Likes:        service.NewLikeService(db, log),
		Bookmarks:    service.NewBookmarkService(db, log),
	}
	mux := NewRouter(svcs, Deps{Config: cfg, Logger: log, TokenManager: tm})
	return &apiTest{db: db, mux: mux}
}

func (a *apiTest) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// register + login, returning the access token.
func (a *apiTest) loginAs(t *testing.T, name string, admin bool) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/register", "", map[string]string{
		"name": name, "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	if admin {
		require.NoError(t, a.db.Model(&domain.User{}).
			Where("name = ?", name).Update("role", domain.RoleAdmin).Error)
	}
	rec = a.do(t, http.MethodPost, "/login", "", map[string]string{
		"name": name, "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeEnvelope(t, rec)
	result := body["result"].(map[string]any)
	return result["accessToken"].(string)
}

func TestRegisterLoginMeFlow(t *testing.T) {
	api := newAPITest(t)

	rec := api.do(t, http.MethodPost, "/register", "", map[string]string{
		"name": "traveler", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "create user successfully", body["message"])

	rec = api.do(t, http.MethodPost, "/login", "", map[string]string{
		"name": "traveler", "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeEnvelope(t, rec)
	token := body["result"].(map[string]any)["accessToken"].(string)

	// The refresh token travels as an httpOnly cookie, not in the body.
	assert.NotContains(t, rec.Body.String(), "refreshToken\":")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refreshToken", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = api.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeEnvelope(t, rec)
	user := body["result"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "traveler", user["name"])
	// Secrets never serialize.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRefreshTokenEndpoint(t *testing.T) {
	api := newAPITest(t)
	api.loginAs(t, "refresher", false)

	rec := api.do(t, http.MethodPost, "/login", "", map[string]string{
		"name": "refresher", "password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	api.mux.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)
	body := decodeEnvelope(t, rec2)
	assert.NotEmpty(t, body["result"].(map[string]any)["accessToken"])

	// No cookie: unauthorized.
	rec3 := api.do(t, http.MethodGet, "/token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
}

func TestAdminGateOnTaxonomy(t *testing.T) {
	api := newAPITest(t)
	userToken := api.loginAs(t, "plainuser", false)
	adminToken := api.loginAs(t, "boss", true)

	// Anonymous: 401 with the standard message.
	rec := api.do(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "Beaches"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "authentication failed, please login.", body["errors"])

	// Authenticated non-admin: 403.
	rec = api.do(t, http.MethodPost, "/api/categories", userToken, map[string]string{"name": "Beaches"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body = decodeEnvelope(t, rec)
	assert.Equal(t, "you do not have permission to perform this action.", body["errors"])

	// Admin: created.
	rec = api.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{"name": "Beaches"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body = decodeEnvelope(t, rec)
	assert.Equal(t, "create category successfully", body["message"])
	assert.NotEmpty(t, body["result"].(map[string]any)["id"])

	// Public read works without a token.
	rec = api.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeEnvelope(t, rec)
	result := body["result"].(map[string]any)
	assert.Len(t, result["categories"], 1)
	pagination := result["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["total"])
	assert.Equal(t, false, pagination["hasNext"])
}

func TestValidationErrorEnvelope(t *testing.T) {
	api := newAPITest(t)

	rec := api.do(t, http.MethodPost, "/register", "", map[string]string{
		"name": "x", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	fields := body["errors"].([]any)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	assert.Contains(t, first, "form")
	assert.Contains(t, first, "message")
}

func TestNotFoundEnvelope(t *testing.T) {
	api := newAPITest(t)

	rec := api.do(t, http.MethodGet, "/destinations/nowhere-at-all", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "destination not found.", body["errors"])
}

func TestExpiredTokenDistinguished(t *testing.T) {
	api := newAPITest(t)
	api.loginAs(t, "sleepy", false)

	expiredTM := auth.NewTokenManager("test-access", "test-refresh", time.Nanosecond, time.Hour)
	var user domain.User
	require.NoError(t, api.db.First(&user, "name = ?", "sleepy").Error)
	token, err := expiredTM.GenerateAccessToken(user.ID, user.Name, string(user.Role))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	rec := api.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "token has expired", body["errors"])

	// Wrong signature is forbidden, not merely unauthorized.
	otherTM := auth.NewTokenManager("wrong-secret", "test-refresh", time.Hour, time.Hour)
	token, err = otherTM.GenerateAccessToken(user.ID, user.Name, string(user.Role))
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStoryOwnershipOverHTTP(t *testing.T) {
	api := newAPITest(t)
	authorToken := api.loginAs(t, "author", false)
	strangerToken := api.loginAs(t, "stranger", false)

	rec := api.do(t, http.MethodPost, "/api/stories", authorToken, map[string]any{
		"name": "My Journey", "content": "a long and winding road through the hills",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	storyID := decodeEnvelope(t, rec)["result"].(map[string]any)["id"].(string)

	rec = api.do(t, http.MethodDelete, "/api/stories/"+storyID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/stories/"+storyID, authorToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLikeConflictOverHTTP(t *testing.T) {
	api := newAPITest(t)
	authorToken := api.loginAs(t, "author", false)
	fanToken := api.loginAs(t, "fan", false)

	rec := api.do(t, http.MethodPost, "/api/stories", authorToken, map[string]any{
		"name": "Likeable", "content": "a story that everyone seems to enjoy",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	storyID := decodeEnvelope(t, rec)["result"].(map[string]any)["id"].(string)

	like := map[string]string{"schema": "stories", "schemaId": storyID}
	rec = api.do(t, http.MethodPost, "/like", fanToken, like)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/like", fanToken, like)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "like already exists.", body["errors"])
}

// Mutations ride PATCH, detail routes address by slug, interactions are
// singular, the user index is public, and every route answers under /api too.
func TestRouteShapesAndAliases(t *testing.T) {
	api := newAPITest(t)
	adminToken := api.loginAs(t, "boss", true)

	// /api alias of registration.
	rec := api.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name": "aliased", "password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{"name": "Beaches"})
	require.Equal(t, http.StatusCreated, rec.Code)
	categoryID := decodeEnvelope(t, rec)["result"].(map[string]any)["id"].(string)

	// Rename over PATCH; PUT is not part of the surface.
	rec = api.do(t, http.MethodPatch, "/api/categories/"+categoryID, adminToken, map[string]string{"name": "Hidden Beaches"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPut, "/api/categories/"+categoryID, adminToken, map[string]string{"name": "Nope"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// Detail by the regenerated slug.
	rec = api.do(t, http.MethodGet, "/categories/hidden-beaches", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	category := decodeEnvelope(t, rec)["result"].(map[string]any)["category"].(map[string]any)
	assert.Equal(t, "Hidden Beaches", category["name"])

	// The user index is public.
	rec = api.do(t, http.MethodGet, "/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeEnvelope(t, rec)["result"].(map[string]any)
	assert.Len(t, result["users"], 2)

	// Singular bookmark route, both bare and prefixed.
	fanToken := api.loginAs(t, "fan", false)
	storyRec := api.do(t, http.MethodPost, "/stories", fanToken, map[string]any{
		"name": "Shapes", "content": "a walk along every road this service knows",
	})
	require.Equal(t, http.StatusCreated, storyRec.Code, storyRec.Body.String())
	storyID := decodeEnvelope(t, storyRec)["result"].(map[string]any)["id"].(string)

	rec = api.do(t, http.MethodPost, "/bookmark", fanToken, map[string]string{
		"schema": "stories", "schemaId": storyID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookmarkID := decodeEnvelope(t, rec)["result"].(map[string]any)["id"].(string)
	rec = api.do(t, http.MethodDelete, "/api/bookmark/"+bookmarkID, fanToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
