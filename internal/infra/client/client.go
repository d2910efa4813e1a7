// Package client talks to the remote IRRBB analytics backend over its REST
// API. Every call is rate limited, bounded by a bulkhead and guarded by a
// circuit breaker; idempotent reads are retried and coalesced, mutations
// are sent exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("client")

const (
	serviceName    = "irrbb-backend"
	maxDetailBytes = 512
)

// Client is the single entry point to the analytics backend. The base URL
// is fixed at construction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	limiter    *rate.Limiter
	bulkhead   *resilience.Bulkhead
	inflight   singleflight.Group
	writes     atomic.Uint64
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a backend client. baseURL must not end with a slash.
func NewClient(
	httpClient *http.Client,
	baseURL string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	limiter *rate.Limiter,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
		limiter:    limiter,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// CountsAsSuccess tells the circuit breaker which outcomes are not backend
// faults: a 4xx answer means the backend is healthy and rejected the input,
// and a cancelled caller says nothing about the backend either.
func CountsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *domain.ErrHTTP
	return errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError
}

// get performs a coalesced, retried GET and decodes the JSON body into out.
// Identical URLs in flight at the same time share one round trip; each
// caller still honours its own context. A GET issued after a mutation
// returned never joins a round trip started before it.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	raw, err := c.getRaw(ctx, endpoint, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, endpoint, path string, query url.Values) (json.RawMessage, error) {
	target := c.buildURL(path, query)
	key := fmt.Sprintf("%d %s", c.writes.Load(), target)

	ch := c.inflight.DoChan(key, func() (any, error) {
		// Detached so one caller's cancellation cannot fail the others;
		// the http.Client timeout still bounds the call.
		return c.roundTrip(context.WithoutCancel(ctx), http.MethodGet, endpoint, target, nil, true)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// send performs a single non-retried mutation. payload may be nil.
func (c *Client) send(ctx context.Context, method, endpoint, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", endpoint, err)
		}
		body = b
	}
	// Bumped even on failure: the backend may have applied the write.
	defer c.writes.Add(1)
	return c.roundTrip(ctx, method, endpoint, c.buildURL(path, nil), body, false)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, target string, body []byte, retry bool) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Client."+method+" "+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("backend.endpoint", endpoint),
	)

	retryCfg := c.cfg
	if !retry {
		retryCfg.MaxRetries = 0
	}

	result, err := c.cb.Execute(func() (any, error) {
		var data []byte
		innerErr := resilience.RetryWithBackoff(ctx, retryCfg, func() error {
			b, err := c.do(ctx, method, endpoint, target, body)
			if err != nil {
				var httpErr *domain.ErrHTTP
				if errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError {
					return resilience.Permanent(err)
				}
				return err
			}
			data = b
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return data, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.ErrCircuitOpen{Service: serviceName}
		}
		c.metrics.IncrBackendError(endpoint)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("backend call failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, err
	}

	return result.([]byte), nil
}

// do is one HTTP attempt.
func (c *Client) do(ctx context.Context, method, endpoint, target string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("rate limit wait: %w", err))
	}
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, resilience.Permanent(err)
	}
	defer c.bulkhead.Release()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.metrics.IncrBackendRequest(endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrNetwork{Op: method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrNetwork{Op: method + " " + endpoint, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ErrHTTP{
			Status:   resp.StatusCode,
			Detail:   extractDetail(raw),
			Endpoint: endpoint,
		}
	}
	return raw, nil
}

// buildURL joins the base URL, path and query. Spaces are encoded as %20 so
// scenario names reach the backend exactly as encodeURIComponent would send
// them.
func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + strings.ReplaceAll(query.Encode(), "+", "%20")
	}
	return u
}

// extractDetail pulls the backend's "detail" message out of an error body.
// Non-string details (validation error lists) are re-encoded compactly;
// non-JSON bodies are returned as trimmed text.
func extractDetail(raw []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, payload.Detail); err == nil {
			return truncate(buf.String())
		}
	}
	return truncate(strings.TrimSpace(string(raw)))
}

func truncate(s string) string {
	if len(s) > maxDetailBytes {
		return s[:maxDetailBytes] + "..."
	}
	return s
}
