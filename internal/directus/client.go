// Package directus executes catalogue read requests against a Directus REST
// API.
//
// Each call is a single attempt: there is no retry and no pagination. Every
// failure is reported as a *TransportError.
package directus

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/spheraeng/catalogue-client/internal/jsonval"
	"github.com/spheraeng/catalogue-client/internal/query"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 32 << 20

// Config holds connection settings for the Directus instance.
type Config struct {
	// BaseURL is the root URL of the instance, e.g. https://cms.example.com.
	BaseURL string
	// Token is a static access token. Empty means anonymous access.
	Token     string
	UserAgent string
	// Timeout bounds a whole request including reading the body.
	Timeout time.Duration
}

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	transport      http.RoundTripper
}

// Option configures a Client.
type Option func(*options)

// WithTracerProvider sets the tracer provider for HTTP instrumentation.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider for HTTP instrumentation.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTransport replaces the base round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// Client issues read requests. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient validates cfg and builds an instrumented client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	o := options{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		transport:      http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rt := Wrap(
		otelhttp.NewTransport(o.transport,
			otelhttp.WithTracerProvider(o.tracerProvider),
			otelhttp.WithMeterProvider(o.meterProvider),
		),
		RequestID(),
		BearerToken(cfg.Token),
		UserAgent(cfg.UserAgent),
	)

	return &Client{
		baseURL: u,
		http: &http.Client{
			Transport: rt,
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// Execute reads the collection described by r and returns the decoded
// payload with any {"data": ...} envelope removed.
func (c *Client) Execute(ctx context.Context, r query.Request) (any, error) {
	op := "read " + r.Collection

	params, err := r.Values()
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	u := c.baseURL.JoinPath("items", r.Collection)
	u.RawQuery = params.Encode()

	status, body, err := c.get(ctx, op, u)
	if err != nil {
		return nil, err
	}

	v, err := jsonval.DecodeBytes(body)
	if err != nil {
		return nil, &TransportError{
			Op:     op,
			Status: status,
			Body:   body,
			Err:    errors.Wrap(err, "decode response"),
		}
	}
	return Unwrap(v), nil
}

// Ping checks that the instance answers on /server/ping.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.get(ctx, "ping", c.baseURL.JoinPath("server", "ping"))
	return err
}

func (c *Client) get(ctx context.Context, op string, u *url.URL) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: errors.Wrap(err, "create request")}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    errors.Wrap(err, "read body"),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, body, &TransportError{
			Op:       op,
			Status:   resp.StatusCode,
			Body:     body,
			Messages: errorMessages(body),
			Err:      errors.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return resp.StatusCode, body, nil
}
