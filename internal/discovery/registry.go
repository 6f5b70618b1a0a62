package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/metrics"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// SessionOptions carry per-session collaborator settings.
type SessionOptions struct {
	AuthToken string
}

// Factory builds the controller backing a new session.
type Factory func(opts SessionOptions) (*Controller, error)

// RegistryParams configure the session registry.
type RegistryParams struct {
	Factory       Factory
	Logger        *logger.Logger
	Metrics       *metrics.DiscoveryMetrics
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Clock         func() time.Time
}

// Registry keeps one controller per browsing session and expires idle ones.
type Registry struct {
	factory  Factory
	logg     *logger.Logger
	metrics  *metrics.DiscoveryMetrics
	idleTTL  time.Duration
	interval time.Duration
	clock    func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Controller
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Factory == nil {
		return nil, fmt.Errorf("controller factory required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	idleTTL := params.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	interval := params.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		factory:  params.Factory,
		logg:     logg,
		metrics:  params.Metrics,
		idleTTL:  idleTTL,
		interval: interval,
		clock:    clock,
		sessions: make(map[uuid.UUID]*Controller),
	}, nil
}

// Create starts a session and returns its id.
func (r *Registry) Create(opts SessionOptions) (uuid.UUID, *Controller, error) {
	ctrl, err := r.factory(opts)
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	id := uuid.New()

	r.mu.Lock()
	r.sessions[id] = ctrl
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	return id, ctrl, nil
}

// Get looks up a session by its string id.
func (r *Registry) Get(raw string) (*Controller, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}
	r.mu.RLock()
	ctrl, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return ctrl, nil
}

// Delete ends a session. It reports whether the session existed.
func (r *Registry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many were removed.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.clock().Add(-r.idleTTL)

	r.mu.RLock()
	candidates := make(map[uuid.UUID]*Controller, len(r.sessions))
	for id, ctrl := range r.sessions {
		candidates[id] = ctrl
	}
	r.mu.RUnlock()

	expired := make([]uuid.UUID, 0)
	for id, ctrl := range candidates {
		if ctrl.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}

	r.mu.Lock()
	removed := 0
	for _, id := range expired {
		// a session touched since the scan keeps its slot
		if ctrl, ok := r.sessions[id]; ok && ctrl.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	if removed > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{"expired": removed, "active": count}), "expired idle sessions")
	}
	return removed
}

// Run sweeps idle sessions on a fixed cadence until the context is canceled.
func (r *Registry) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "session sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
