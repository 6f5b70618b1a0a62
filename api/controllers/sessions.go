package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-discovery/api/middleware"
	"github.com/angelmondragon/packfinderz-discovery/api/responses"
	"github.com/angelmondragon/packfinderz-discovery/api/validators"
	"github.com/angelmondragon/packfinderz-discovery/internal/discovery"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/pagination"
)

// SessionStore is the registry surface the session endpoints need.
type SessionStore interface {
	Create(opts discovery.SessionOptions) (uuid.UUID, *discovery.Controller, error)
	Delete(id uuid.UUID) bool
}

type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	State     discovery.State `json:"state"`
}

// SessionCreate opens a browsing session. The caller's bearer token, when present,
// is forwarded to the marketplace for that session only. `?load=true` runs the
// initial load before responding.
func SessionCreate(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable"))
			return
		}

		token, err := validators.ParseBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid authorization header"))
			return
		}

		load := false
		if raw := strings.TrimSpace(r.URL.Query().Get("load")); raw != "" {
			load, err = strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "load must be a boolean").WithDetails(map[string]any{"field": "load"}))
				return
			}
		}

		id, ctrl, err := store.Create(discovery.SessionOptions{AuthToken: token})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, id.String())
			logg.Info(ctx, "session opened")
		}

		var state discovery.State
		if load {
			state = ctrl.Load(ctx)
		} else {
			state = ctrl.State()
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{SessionID: id.String(), State: state})
	}
}

// SessionDelete closes a browsing session and drops its cart.
func SessionDelete(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, middleware.SessionParam))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session id"))
			return
		}
		if !store.Delete(id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "session not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type pagedStateResponse struct {
	discovery.State
	NextCursor string `json:"nextCursor,omitempty"`
}

// SessionState returns the current view. `?limit=N&cursor=C` pages through the
// visible items; the total still counts every visible item.
func SessionState(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := ctrl.State()
		items, next, err := pagination.Page(state.Items, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		state.Items = items
		responses.WriteSuccess(w, pagedStateResponse{State: state, NextCursor: next})
	}
}

func sessionController(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*discovery.Controller, bool) {
	ctrl := middleware.ControllerFromContext(r.Context())
	if ctrl == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
		return nil, false
	}
	return ctrl, true
}
