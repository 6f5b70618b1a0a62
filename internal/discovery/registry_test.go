package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-discovery/internal/suppliers"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, clock *manualClock) (*Registry, *[]SessionOptions) {
	t.Helper()
	var seen []SessionOptions
	reg, err := NewRegistry(RegistryParams{
		IdleTTL: 10 * time.Minute,
		Clock:   clock.Now,
		Factory: func(opts SessionOptions) (*Controller, error) {
			seen = append(seen, opts)
			market := newFakeMarketplace()
			resolver, err := suppliers.NewResolver(suppliers.ResolverParams{Lookup: market})
			if err != nil {
				return nil, err
			}
			return NewController(Params{Catalog: market, Resolver: resolver, Clock: clock.Now})
		},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg, &seen
}

func TestRegistryCreateAndGet(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg, seen := newTestRegistry(t, clock)

	id, ctrl, err := reg.Create(SessionOptions{AuthToken: "tok"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if (*seen)[0].AuthToken != "tok" {
		t.Fatalf("factory should receive session options")
	}
	got, err := reg.Get(id.String())
	if err != nil || got != ctrl {
		t.Fatalf("expected stored controller, err=%v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one session, got %d", reg.Len())
	}
}

func TestRegistryGetErrors(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	reg, _ := newTestRegistry(t, clock)

	if _, err := reg.Get("not-a-uuid"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := reg.Get(uuid.NewString()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	reg, _ := newTestRegistry(t, clock)
	id, _, _ := reg.Create(SessionOptions{})

	if !reg.Delete(id) {
		t.Fatalf("expected delete to report existing session")
	}
	if reg.Delete(id) {
		t.Fatalf("second delete should report missing session")
	}
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg, _ := newTestRegistry(t, clock)

	idle, _, _ := reg.Create(SessionOptions{})
	active, activeCtrl, _ := reg.Create(SessionOptions{})

	clock.Advance(8 * time.Minute)
	activeCtrl.OnSearchChanged("rice")
	clock.Advance(5 * time.Minute)

	if removed := reg.Sweep(context.Background()); removed != 1 {
		t.Fatalf("expected one expired session, got %d", removed)
	}
	if _, err := reg.Get(idle.String()); err == nil {
		t.Fatalf("idle session should be gone")
	}
	if _, err := reg.Get(active.String()); err != nil {
		t.Fatalf("active session should survive: %v", err)
	}
}

func TestRegistryFactoryError(t *testing.T) {
	reg, err := NewRegistry(RegistryParams{Factory: func(SessionOptions) (*Controller, error) {
		return nil, errors.New("boom")
	}})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, _, err := reg.Create(SessionOptions{}); err == nil {
		t.Fatal("expected factory error")
	}
	if reg.Len() != 0 {
		t.Fatalf("failed create must not register a session")
	}
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	reg, err := NewRegistry(RegistryParams{
		SweepInterval: time.Millisecond,
		Factory:       func(SessionOptions) (*Controller, error) { return nil, nil },
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestNewRegistryRequiresFactory(t *testing.T) {
	if _, err := NewRegistry(RegistryParams{}); err == nil {
		t.Fatal("expected error without factory")
	}
}
