// Package upstream is the HTTP client for the remote coaching backend API.
// All portal data (articles, courses, payment orders) lives behind that
// API; this service consumes it and never writes to it directly.
package upstream

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
	"time"

	"github.com/rs/zerolog"
	"github.com/upsc-portal-gateway/internal/metrics"
	"github.com/upsc-portal-gateway/internal/models"
)

var (
	// ErrNotFound indicates a 404 from the backend
	ErrNotFound = errors.New("upstream: resource not found")
	// ErrBadStatus indicates any other non-2xx response
	ErrBadStatus = errors.New("upstream: unexpected status")
	// ErrBadPayload indicates a response body that failed to decode
	ErrBadPayload = errors.New("upstream: malformed response payload")
)

// AuthContext supplies credentials for authenticated endpoints. Credentials
// are injected here explicitly; nothing in this package reads ambient
// storage.
type AuthContext interface {
	Token() string
	UserID() string
	Clear()
}

// StaticAuth is an AuthContext backed by a fixed service token
type StaticAuth struct {
	APIToken string
}

func (s *StaticAuth) Token() string  { return s.APIToken }
func (s *StaticAuth) UserID() string { return "" }
func (s *StaticAuth) Clear()         {}

// AffairsPage is one page of the current-affairs listing. TotalCount is
// nil when the backend omits it; callers then fall back to the page-length
// heuristic for pagination.
type AffairsPage struct {
	Items      []models.Article
	Message    string
	TotalCount *int
}

// API defines the backend operations consumed by this service
type API interface {
	GetAffairs(ctx context.Context, query map[string]string) (*AffairsPage, error)
	GetAffair(ctx context.Context, id string) (*models.Article, error)
	GetCourses(ctx context.Context, page, limit int) ([]models.Course, error)
	InitiatePayment(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error)
	VerifyPayment(ctx context.Context, cb models.GatewayCallback) (json.RawMessage, error)
	GetReceipt(ctx context.Context, paymentID string) (json.RawMessage, error)
	RecentPayments(ctx context.Context) (json.RawMessage, error)
}

// Client implements API over HTTP
type Client struct {
	baseURL       string
	auth          AuthContext
	client        *http.Client
	verifyTimeout time.Duration
	log           zerolog.Logger
}

// New creates a backend client. verifyTimeout bounds the payment
// verification call separately from the shared client timeout so that a
// hung verification cannot strand a checkout.
func New(baseURL string, auth AuthContext, timeout, verifyTimeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		auth:    auth,
		client: &http.Client{
			Timeout: timeout,
		},
		verifyTimeout: verifyTimeout,
		log:           log.With().Str("component", "upstream").Logger(),
	}
}

// GetAffairs fetches one page of the current-affairs listing.
// Supported query keys: limit, page, q, startDate, endDate, paperName,
// subject. Only keys present in the map are sent.
func (c *Client) GetAffairs(ctx context.Context, query map[string]string) (*AffairsPage, error) {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}

	body, err := c.get(ctx, "/api/v1/get-affairs?"+values.Encode(), "get_affairs")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data       []models.Article `json:"data"`
		Message    string           `json:"message"`
		TotalCount *int             `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: get-affairs: %v", ErrBadPayload, err)
	}

	return &AffairsPage{
		Items:      envelope.Data,
		Message:    envelope.Message,
		TotalCount: envelope.TotalCount,
	}, nil
}

// GetAffair fetches a single article by its backend id
func (c *Client) GetAffair(ctx context.Context, id string) (*models.Article, error) {
	body, err := c.get(ctx, "/api/v1/affair/"+url.PathEscape(id), "get_affair")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data models.Article `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: affair: %v", ErrBadPayload, err)
	}
	if envelope.Data.ID == "" {
		return nil, ErrNotFound
	}
	return &envelope.Data, nil
}

// GetCourses fetches a page of course offerings
func (c *Client) GetCourses(ctx context.Context, page, limit int) ([]models.Course, error) {
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v1/get-course?"+values.Encode(), "get_courses")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.Course `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: courses: %v", ErrBadPayload, err)
	}
	return envelope.Data, nil
}

// InitiatePayment asks the backend to create a payment record plus gateway
// order. The response arrives either as {data:{payment,razorpayOrder}} or
// flat; both shapes are accepted here, and the caller validates that both
// sub-objects are actually present.
func (c *Client) InitiatePayment(ctx context.Context, form models.CheckoutForm) (*models.OrderData, error) {
	body, err := c.post(ctx, "/api/v1/initiate-course-payment", form, 0, "initiate_payment")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: initiate: %v", ErrBadPayload, err)
	}

	payload := body
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		payload = envelope.Data
	}

	var order models.OrderData
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("%w: initiate order data: %v", ErrBadPayload, err)
	}
	return &order, nil
}

// VerifyPayment submits the gateway callback identifiers for signature
// verification. The envelope shape varies, so the raw body is returned for
// the checkout verifier to normalize. The call carries its own bounded
// timeout.
func (c *Client) VerifyPayment(ctx context.Context, cb models.GatewayCallback) (json.RawMessage, error) {
	return c.post(ctx, "/api/v1/verify-course-payment", cb, c.verifyTimeout, "verify_payment")
}

// GetReceipt fetches the receipt document for a verified payment
func (c *Client) GetReceipt(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/payment-receipt/"+url.PathEscape(paymentID), "get_receipt")
}

// RecentPayments fetches the recent-payments feed
func (c *Client) RecentPayments(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/v1/recent-payment", "recent_payments")
}

func (c *Client) get(ctx context.Context, path, operation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, operation)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, timeout time.Duration, operation string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, operation)
}

func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	if token := c.auth.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestDuration.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Msg("Backend returned non-2xx status")
		return nil, fmt.Errorf("%w: %s %s -> %d", ErrBadStatus, req.Method, req.URL.Path, resp.StatusCode)
	}

	return body, nil
}
