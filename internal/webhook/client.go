package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/mojito-booking/internal/booking"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

var webhookTracer = otel.Tracer("mojito.internal.webhook")

// maxBodyLog caps how much of a rejected response is kept for diagnostics.
const maxBodyLog = 300

// LatencyObserver records webhook round trips.
type LatencyObserver interface {
	ObserveWebhook(statusClass string, seconds float64)
}

// Client delivers bookings to the automation webhook as a GET whose query
// string carries the form fields. It never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
	latency    LatencyObserver
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport defaults in place.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLatencyObserver reports every round trip to obs.
func WithLatencyObserver(obs LatencyObserver) Option {
	return func(c *Client) {
		c.latency = obs
	}
}

// NewClient validates the endpoint and builds a client for it.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateEndpoint requires an absolute http(s) URL without a query string,
// since the form is appended as the query.
func ValidateEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("webhook: endpoint required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("webhook: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook: endpoint scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("webhook: endpoint host required")
	}
	if u.RawQuery != "" || strings.Contains(endpoint, "?") {
		return fmt.Errorf("webhook: endpoint must not carry a query string")
	}
	return nil
}

// Endpoint returns the configured webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// URLFor builds the request URL for data.
func (c *Client) URLFor(data booking.FormData) string {
	return c.endpoint + "?" + booking.Encode(data)
}

var _ booking.Sender = (*Client)(nil)

// Send issues one GET to the webhook. A 2xx answer is success and its body is
// ignored. Other statuses yield *booking.RemoteRejectedError; failures to
// complete the request wrap booking.ErrTransportFailure.
func (c *Client) Send(ctx context.Context, data booking.FormData) error {
	ctx, span := webhookTracer.Start(ctx, "webhook.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("mojito.referral", data.Referral))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URLFor(data), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return fmt.Errorf("%w: build request: %v", booking.ErrTransportFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("transport_error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "http request")
		return fmt.Errorf("%w: %w", booking.ErrTransportFailure, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.observe(statusClass(resp.StatusCode), start)

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Debug("webhook delivered", "status", resp.StatusCode)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	msg := string(body)
	span.SetStatus(codes.Error, resp.Status)
	return &booking.RemoteRejectedError{StatusCode: resp.StatusCode, Body: msg}
}

func (c *Client) observe(class string, start time.Time) {
	if c.latency == nil {
		return
	}
	c.latency.ObserveWebhook(class, time.Since(start).Seconds())
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
