package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

const (
	defaultTimeout              = 10 * time.Second
	defaultPageSize             = 100
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("marketplace base url is required")

// Client talks to the marketplace collaborator API: catalog listing, supplier lookup,
// buyer profile, and order creation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	pageSize   int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAuthToken sets the bearer token sent with every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = strings.TrimSpace(token)
	}
}

// WithPageSize overrides how many products a catalog fetch requests.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a marketplace client rooted at baseURL (for example http://host/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// WithToken returns a copy of the client that authenticates as a different buyer.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.authToken = strings.TrimSpace(token)
	return &clone
}

// ListProducts fetches the catalog, passing the viewer location when known.
// The response may be a bare array or wrapped under "products" or "content";
// any other shape yields an empty catalog.
func (c *Client) ListProducts(ctx context.Context, viewer *geo.Point) ([]models.Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}

	query := url.Values{}
	query.Set("page", "0")
	query.Set("size", strconv.Itoa(c.pageSize))
	if viewer != nil {
		query.Set("userLat", strconv.FormatFloat(viewer.Lat, 'f', -1, 64))
		query.Set("userLng", strconv.FormatFloat(viewer.Lng, 'f', -1, 64))
	}

	body, err := c.do(ctx, http.MethodGet, "products?"+query.Encode(), nil, "list products")
	if err != nil {
		return nil, err
	}

	products, err := decodeCatalog(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	return products, nil
}

// GetSupplier looks up the marketplace user behind a supplier id.
func (c *Client) GetSupplier(ctx context.Context, supplierID string) (*models.Supplier, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}
	trimmed := strings.TrimSpace(supplierID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}

	body, err := c.do(ctx, http.MethodGet, "users/"+url.PathEscape(trimmed), nil, "supplier lookup")
	if err != nil {
		return nil, err
	}

	var supplier models.Supplier
	if err := json.Unmarshal(body, &supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode supplier response")
	}
	return &supplier, nil
}

// GetProfile returns the signed-in buyer profile.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}
	if c.authToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no buyer credentials configured")
	}

	body, err := c.do(ctx, http.MethodGet, "auth/me", nil, "profile lookup")
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode profile response")
	}
	return &profile, nil
}

// Locate resolves the viewer location from the buyer profile. A profile without a
// usable location yields nil without error.
func (c *Client) Locate(ctx context.Context) (*geo.Point, error) {
	profile, err := c.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile.Location == nil {
		return nil, nil
	}
	return geo.NewPoint(profile.Location.Latitude, profile.Location.Longitude), nil
}

// CreateOrder submits a single-line order.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
	}

	body, err := c.do(ctx, http.MethodPost, "orders", payload, "create order")
	if err != nil {
		return nil, err
	}

	var order models.Order
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
		}
	}
	return &order, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, op string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return nil, pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, op+" request failed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+op+" response")
	}
	return body, nil
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
