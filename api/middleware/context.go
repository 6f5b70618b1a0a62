package middleware

import (
	"context"

	"github.com/angelmondragon/packfinderz-discovery/internal/discovery"
)

type contextKey string

const (
	ctxSessionID  contextKey = "session_id"
	ctxController contextKey = "discovery_controller"
)

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// ControllerFromContext returns the session controller loaded by the Session middleware.
func ControllerFromContext(ctx context.Context) *discovery.Controller {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxController).(*discovery.Controller); ok {
		return v
	}
	return nil
}

// WithSession injects the session id and its controller into the context.
func WithSession(ctx context.Context, sessionID string, ctrl *discovery.Controller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	return context.WithValue(ctx, ctxController, ctrl)
}
