// Package handler is the HTTP boundary: it decodes requests, resolves the
// acting user from verified claims, calls services and writes the uniform
// response envelope.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/apperror"
	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/security/middleware"
	"github.com/pesona-id/pesona-backend/internal/service"
)

// Envelope is the body shape of every API response. Success responses carry
// result and usually message; failures carry errors (a string, or a list of
// {form, message} pairs for validation).
type Envelope struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes the success envelope.
func WriteSuccess(w http.ResponseWriter, status int, result any, message string) {
	writeJSON(w, status, Envelope{Success: true, Result: result, Message: message})
}

// WriteError maps a service failure onto its status code and failure
// envelope. Internal causes are logged, never sent to clients.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error) {
	appErr := apperror.From(err)

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindUnauthorized, apperror.KindInvalidCredentials:
		status = http.StatusUnauthorized
	case apperror.KindForbidden:
		status = http.StatusForbidden
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindAlreadyExists:
		status = http.StatusConflict
	case apperror.KindInternal:
		if log != nil {
			log.Error("internal error", slog.String("error", appErr.Error()))
		}
	}

	var errs any = appErr.Message
	if len(appErr.Fields) > 0 {
		errs = appErr.Fields
	}
	writeJSON(w, status, Envelope{Success: false, Errors: errs})
}

// decodeJSON parses the request body, rejecting unknown garbage as a
// validation failure rather than a 500.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationMsg("body", "invalid json body")
	}
	return nil
}

// actorFromRequest resolves the acting user from the verified token claims.
// Routes behind RequireAuth always have them.
func actorFromRequest(r *http.Request) service.Actor {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		return service.Actor{}
	}
	return service.Actor{ID: claims.UserID, Name: claims.Name, Role: domain.Role(claims.Role)}
}
