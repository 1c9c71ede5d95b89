package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Param is a single query parameter. Parameters are appended to the URL in
// slice order.
type Param struct {
	Key   string
	Value string
}

// Request describes one upstream call. Method defaults to GET. Body, when
// present, is serialized as JSON with the session id merged in; for body-less
// requests the session id travels as a query parameter instead.
type Request struct {
	Method   string
	Endpoint string
	Header   map[string]string
	Body     map[string]any
	Params   []Param
}

// APIError carries the status of a failed upstream round trip.
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: %s", e.Status)
}

// Client is the single gateway to the remote catalog API. Every call is
// tagged with the caller's session id.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets an overall per-request timeout. Zero leaves requests
// unbounded except by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient returns a Client bound to the upstream base URL.
func NewClient(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one round trip against baseURL + req.Endpoint and decodes the
// JSON response into out (out may be nil). The session id is always attached:
// as the session_id query parameter when there is no body, merged into the
// JSON body otherwise. Caller-supplied body fields win over the merged id.
// Non-2xx responses produce an *APIError. No retries.
func (c *Client) Do(ctx context.Context, sessionID string, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var query strings.Builder
	appendParam := func(k, v string) {
		if query.Len() > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(k))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(v))
	}
	for _, p := range req.Params {
		appendParam(p.Key, p.Value)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		merged := map[string]any{"session_id": sessionID}
		for k, v := range req.Body {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	} else {
		appendParam("session_id", sessionID)
	}

	target := c.baseURL + req.Endpoint
	if query.Len() > 0 {
		target += "?" + query.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		if c.logger != nil {
			c.logger.Warn("upstream request failed",
				zap.String("method", method),
				zap.String("endpoint", req.Endpoint),
				zap.Int("status", resp.StatusCode))
		}
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Products lists products with pagination, sorting, search and category
// filtering. Zero-value query fields are omitted from the request.
func (c *Client) Products(ctx context.Context, sessionID string, q ProductQuery) (*ProductPage, error) {
	params := []Param{
		{"limit", strconv.Itoa(q.Limit)},
		{"skip", strconv.Itoa(q.Skip)},
	}
	if q.SortBy != "" {
		params = append(params, Param{"sortBy", q.SortBy})
	}
	if q.Order != "" {
		params = append(params, Param{"order", q.Order})
	}
	if q.Search != "" {
		params = append(params, Param{"search", q.Search})
	}
	if q.Category != "" {
		params = append(params, Param{"category", q.Category})
	}
	if len(q.IDs) > 0 {
		ids := make([]string, 0, len(q.IDs))
		for _, id := range q.IDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params = append(params, Param{"ids", strings.Join(ids, ",")})
	}

	var page ProductPage
	if err := c.Do(ctx, sessionID, Request{Endpoint: "/products", Params: params}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Product fetches a single product record.
func (c *Client) Product(ctx context.Context, sessionID string, id int64) (*Product, error) {
	var p Product
	endpoint := "/products/" + strconv.FormatInt(id, 10)
	if err := c.Do(ctx, sessionID, Request{Endpoint: endpoint}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context, sessionID string) ([]Category, error) {
	var cats []Category
	if err := c.Do(ctx, sessionID, Request{Endpoint: "/categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// TopProducts lists categories with their embedded top products.
func (c *Client) TopProducts(ctx context.Context, sessionID string) ([]Category, error) {
	var cats []Category
	if err := c.Do(ctx, sessionID, Request{Endpoint: "/categories/top_products"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}
