package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits operator-facing audit events for auth activity and denied
// access. Content mutations are additionally persisted in the activity_logs
// table by the services; this trail is log-only.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogLogin(ctx context.Context, userID, status string) {
	al.LogAction(ctx, userID, "login", "user", userID, status)
}

func (al *Logger) LogRegister(ctx context.Context, userID string) {
	al.LogAction(ctx, userID, "register", "user", userID, "created")
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", reason)
}
