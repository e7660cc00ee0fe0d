package cartapi

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the remote cart and catalog contract. Every cart operation
// returns the entire cart as the server sees it after the call.
type Service interface {
	FetchProducts(ctx context.Context) ([]Product, error)
	FetchCart(ctx context.Context) (Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) (Cart, error)
	UpdateQuantity(ctx context.Context, productID int64, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, productID int64) (Cart, error)
	ApplyCoupon(ctx context.Context, code string) (Cart, error)
	RemoveCoupon(ctx context.Context) (Cart, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the cart HTTP API on behalf of a single user.
type Client struct {
	baseURL   *url.URL
	userID    string
	http      *http.Client
	userAgent string
	log       zerolog.Logger
}

const (
	defaultBaseURL   = "127.0.0.1:3000"
	defaultUserAgent = "basket/0.1"

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient builds a Client for baseURL (host:port or full URL) and userID.
func NewClient(baseURL, userID string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is empty")
	}
	c := &Client{
		baseURL:   base,
		userID:    userID,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchProducts retrieves the catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Product
	if err := c.do(ctx, http.MethodGet, &payload, nil, "products"); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchCart retrieves the current cart.
func (c *Client) FetchCart(ctx context.Context) (Cart, error) {
	return c.cartCall(ctx, http.MethodGet, nil)
}

// AddItem adds quantity units of productID to the cart.
func (c *Client) AddItem(ctx context.Context, productID int64, quantity int) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, addItemRequest{ProductID: productID, Quantity: quantity}, "item")
}

// UpdateQuantity sets the quantity of an existing line.
func (c *Client) UpdateQuantity(ctx context.Context, productID int64, quantity int) (Cart, error) {
	return c.cartCall(ctx, http.MethodPut, updateQuantityRequest{Quantity: quantity}, "item", strconv.FormatInt(productID, 10))
}

// RemoveItem drops the line for productID.
func (c *Client) RemoveItem(ctx context.Context, productID int64) (Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, nil, "item", strconv.FormatInt(productID, 10))
}

// ApplyCoupon submits a manual coupon code. The code is sent as given.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, couponRequest{Code: code}, "coupon", "apply")
}

// RemoveCoupon clears the manual coupon.
func (c *Client) RemoveCoupon(ctx context.Context) (Cart, error) {
	return c.cartCall(ctx, http.MethodPost, nil, "coupon", "remove")
}

func (c *Client) cartCall(ctx context.Context, method string, body any, segments ...string) (Cart, error) {
	if c == nil {
		return Cart{}, fmt.Errorf("client is nil")
	}
	path := append([]string{"cart", c.userID}, segments...)
	var payload Cart
	if err := c.do(ctx, method, &payload, body, path...); err != nil {
		return Cart{}, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method string, dest, body any, segments ...string) error {
	reqURL, path := c.endpoint(segments...)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("request_id", requestID).Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, path)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// endpoint returns the absolute URL and the escaped relative path for segments.
func (c *Client) endpoint(segments ...string) (string, string) {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	path := "/" + strings.Join(escaped, "/")
	return c.baseURL.String() + path, path
}

// newAPIError reads the error body. A missing, blank or unparsable body
// leaves Message empty so callers fall back to their own text. A non-blank
// message is kept exactly as the server sent it.
func newAPIError(resp *http.Response, path string) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Path: path}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	if strings.TrimSpace(body.Error) != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

// ServerMessage extracts the server-supplied error text from err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
