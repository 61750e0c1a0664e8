package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/service"
	"github.com/pesona-id/pesona-backend/pkg/config"
)

const refreshCookieName = "refreshToken"

// AuthHandler serves registration, login, the cookie-based refresh flow,
// logout and the caller's own profile.
type AuthHandler struct {
	auth   *service.AuthService
	config *config.Config
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, config: cfg, logger: logger}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create user successfully")
}

// Login handles POST /login. The refresh token travels only in an
// httpOnly cookie; the body carries the access token and profile.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	WriteSuccess(w, http.StatusOK, res, "login successfully")
}

// Token handles GET /token: exchanges the refresh cookie for a new
// access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		WriteError(w, h.logger, apperror.Unauthorized(""))
		return
	}
	accessToken, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]string{"accessToken": accessToken}, "")
}

// Logout handles POST /logout: clears the stored refresh token and
// expires the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if err := h.auth.Logout(r.Context(), actor); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	h.clearRefreshCookie(w)
	WriteSuccess(w, http.StatusOK, nil, "logout successfully")
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), actorFromRequest(r))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"user": user}, "")
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure(),
		SameSite: http.SameSiteLaxMode,
	})
}
