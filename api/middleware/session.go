package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-discovery/api/responses"
	"github.com/angelmondragon/packfinderz-discovery/internal/discovery"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
)

// SessionParam is the chi URL parameter carrying the session id.
const SessionParam = "sessionId"

// SessionLoader resolves a session id to its controller.
type SessionLoader interface {
	Get(id string) (*discovery.Controller, error)
}

// Session loads the controller named by the {sessionId} URL parameter.
func Session(sessions SessionLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, SessionParam)
			ctrl, err := sessions.Get(id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithSession(r.Context(), id, ctrl)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
