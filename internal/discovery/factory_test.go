package discovery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-discovery/internal/cart"
	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	"github.com/angelmondragon/packfinderz-discovery/pkg/marketplace"
)

type headerRecorder struct {
	mu   sync.Mutex
	auth map[string][]string
}

func (h *headerRecorder) handler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	key := r.Method + " " + r.URL.Path
	h.auth[key] = append(h.auth[key], r.Header.Get("Authorization"))
	h.mu.Unlock()

	switch r.URL.Path {
	case "/api/products":
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Onion","unitPrice":40,"supplierId":"s1"}]`)
	case "/api/users/s1":
		_, _ = io.WriteString(w, `{"name":"Hill Farm"}`)
	case "/api/auth/me":
		_, _ = io.WriteString(w, `{"id":1,"location":{"latitude":13.0,"longitude":77.6}}`)
	case "/api/orders":
		_, _ = io.WriteString(w, `{"id":9}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *headerRecorder) headers() map[string][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string][]string, len(h.auth))
	for k, v := range h.auth {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func newRecordingFactory(t *testing.T) (Factory, *headerRecorder) {
	t.Helper()
	rec := &headerRecorder{auth: map[string][]string{}}
	srv := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(srv.Close)

	client, err := marketplace.NewClient(srv.URL+"/api",
		marketplace.WithHTTPClient(srv.Client()),
		marketplace.WithAuthToken("service-account"),
	)
	require.NoError(t, err)
	return MarketplaceFactory(FactoryParams{Client: client}), rec
}

func runSession(t *testing.T, ctrl *Controller) State {
	t.Helper()
	ctx := context.Background()
	ctrl.Load(ctx)
	_, err := ctrl.OnCartAdd("p1")
	require.NoError(t, err)
	_, state, err := ctrl.Checkout(ctx, cart.CheckoutInput{
		DeliveryAddress: "1 Main St",
		PaymentMethod:   enums.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	return state
}

func TestFactoryAnonymousSessionSendsNoCredentials(t *testing.T) {
	factory, rec := newRecordingFactory(t)

	ctrl, err := factory(SessionOptions{})
	require.NoError(t, err)
	state := runSession(t, ctrl)

	assert.Nil(t, state.Location)
	headers := rec.headers()
	assert.NotContains(t, headers, "GET /api/auth/me")
	for key, values := range headers {
		for _, v := range values {
			assert.Empty(t, v, "request %s carried credentials", key)
		}
	}
	assert.Contains(t, headers, "POST /api/orders")
}

func TestFactorySessionUsesOwnToken(t *testing.T) {
	factory, rec := newRecordingFactory(t)

	ctrl, err := factory(SessionOptions{AuthToken: "buyer-1"})
	require.NoError(t, err)
	state := runSession(t, ctrl)

	require.NotNil(t, state.Location)
	assert.InDelta(t, 13.0, state.Location.Lat, 1e-9)
	for key, values := range rec.headers() {
		for _, v := range values {
			assert.Equal(t, "Bearer buyer-1", v, "request %s", key)
		}
	}
}

func TestFactoryRequiresClient(t *testing.T) {
	_, err := MarketplaceFactory(FactoryParams{})(SessionOptions{})
	require.Error(t, err)
}
