// Package httpclient turns method-tagged request descriptions into HTTP calls
// and maps every failure into an *errs.HTTPError on the left side.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mrops-br/product-catalog/internal/shared/either"
	"github.com/mrops-br/product-catalog/internal/shared/errs"
)

const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPut    = http.MethodPut
	MethodPatch  = http.MethodPatch
	MethodDelete = http.MethodDelete
)

const (
	contentTypeJSON = "application/json"
	fallbackMessage = "An unexpected error occurred"
)

// Request describes one call. Data is only sent for POST, PUT and PATCH.
// Params with nil values are skipped.
type Request struct {
	URL     string
	Method  string
	Params  map[string]any
	Headers map[string]string
	Data    any
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Body       json.RawMessage
	Headers    http.Header
}

// Result is what every client call returns.
type Result = either.Either[*errs.HTTPError, *Response]

// Doer executes a prepared request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the HTTP adapter.
type Client struct {
	baseURL string
	doer    Doer
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the transport.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. Relative request URLs are resolved against baseURL.
// The default transport is an *http.Client with the given timeout and
// otelhttp instrumentation.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request performs req. It never panics and every failure path yields a left
// holding a non-nil *errs.HTTPError.
func (c *Client) Request(ctx context.Context, req Request) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "HTTP transport panicked",
				slog.String("method", req.Method),
				slog.String("url", req.URL),
				slog.Any("panic", r),
			)
			result = either.Left[*errs.HTTPError, *Response](
				errs.NewHTTPError(fallbackMessage, errs.StatusInternalServerError, nil),
			)
		}
	}()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return transportFailure(err)
	}

	c.logger.DebugContext(ctx, "Sending HTTP request",
		slog.String("method", httpReq.Method),
		slog.String("url", httpReq.URL.String()),
	)

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "HTTP request failed",
			slog.String("method", httpReq.Method),
			slog.String("url", httpReq.URL.String()),
			slog.String("error", err.Error()),
		)
		return transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "HTTP request returned error status",
			slog.String("method", httpReq.Method),
			slog.String("url", httpReq.URL.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		return failure(
			fmt.Sprintf("Request failed with status code %d", resp.StatusCode),
			resp.StatusCode,
			decodeBody(body),
		)
	}

	return either.Right[*errs.HTTPError](&Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	})
}

func (c *Client) Get(ctx context.Context, path string, params map[string]any, headers map[string]string) Result {
	return c.Request(ctx, Request{URL: path, Method: MethodGet, Params: params, Headers: headers})
}

func (c *Client) Post(ctx context.Context, path string, data any, headers map[string]string) Result {
	return c.Request(ctx, Request{URL: path, Method: MethodPost, Data: data, Headers: headers})
}

func (c *Client) Put(ctx context.Context, path string, data any, headers map[string]string) Result {
	return c.Request(ctx, Request{URL: path, Method: MethodPut, Data: data, Headers: headers})
}

func (c *Client) Patch(ctx context.Context, path string, data any, headers map[string]string) Result {
	return c.Request(ctx, Request{URL: path, Method: MethodPatch, Data: data, Headers: headers})
}

func (c *Client) Delete(ctx context.Context, path string, headers map[string]string) Result {
	return c.Request(ctx, Request{URL: path, Method: MethodDelete, Headers: headers})
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	switch method {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported HTTP method %q", req.Method)
	}

	target, err := c.resolve(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if hasBody(method) && req.Data != nil {
		payload, err := json.Marshal(req.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", contentTypeJSON)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (c *Client) resolve(rawURL string, params map[string]any) (string, error) {
	target := rawURL
	if c.baseURL != "" && !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(rawURL, "/")
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			if v == nil {
				continue
			}
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func hasBody(method string) bool {
	return method == MethodPost || method == MethodPut || method == MethodPatch
}

// decodeBody returns the JSON value of body, the raw text when it is not
// JSON, or nil when it is empty.
func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// transportFailure maps a failure without a response to a 500.
func transportFailure(err error) Result {
	message := err.Error()
	if message == "" {
		message = fallbackMessage
	}
	return failure(message, errs.StatusInternalServerError, nil)
}

func failure(message string, status int, body any) Result {
	return either.Left[*errs.HTTPError, *Response](errs.NewHTTPError(message, status, body))
}

// Decode unmarshals a response body into T.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil || len(resp.Body) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("failed to decode response body: %w", err)
	}
	return v, nil
}
