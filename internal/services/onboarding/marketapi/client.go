// Package marketapi is the onboarding service's client for the marketplace
// REST API. Every response is wrapped in an envelope
// ({data, success, message, errors}) and every failure is returned as an
// *Error tagged with its Kind. Calls are never retried.
package marketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/farmstand.market/internal/platform/id"
	"github.com/louisbranch/farmstand.market/internal/platform/otel"
	"github.com/louisbranch/farmstand.market/internal/platform/timeouts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 4 << 20

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
}

// Client calls the marketplace API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource sets the token source used when the request context does
// not carry one.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse marketplace api url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("marketplace api url %q must be absolute", baseURL)
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		tracer:     otel.Tracer("onboarding/marketapi"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// anonymous calls skip the Authorization header.
	anonymous bool
	out       any
	// timeout defaults to timeouts.APIRequest.
	timeout time.Duration
}

func jsonCall(op, method, path string, in any, out any) (call, error) {
	c := call{op: op, method: method, path: path, out: out}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return call{}, fmt.Errorf("encode %s request: %w", op, err)
		}
		c.body = bytes.NewReader(payload)
		c.contentType = "application/json"
	}
	return c, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	request, err := jsonCall(op, method, path, in, out)
	if err != nil {
		return err
	}
	return c.do(ctx, request)
}

func (c *Client) do(ctx context.Context, request call) (err error) {
	timeout := request.timeout
	if timeout <= 0 {
		timeout = timeouts.APIRequest
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "marketapi."+request.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", request.method),
			attribute.String("url.path", request.path),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	target := c.baseURL.JoinPath(request.path)
	if len(request.query) > 0 {
		target.RawQuery = request.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, request.method, target.String(), request.body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", request.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if request.contentType != "" {
		req.Header.Set("Content-Type", request.contentType)
	}
	if request.method == http.MethodPost {
		// Calls are not retried here, but the key lets the API drop a
		// request replayed by a proxy.
		req.Header.Set("Idempotency-Key", id.NewIdempotencyKey())
	}
	if !request.anonymous {
		if err := c.authorize(ctx, req); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(fmt.Errorf("read %s response: %w", request.op, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	if !env.Success {
		return errorFromResponse(http.StatusUnprocessableEntity, body).withStatus(resp.StatusCode)
	}
	if request.out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, request.out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response data", Cause: err}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	tokens := tokenSourceFromContext(ctx, c.tokens)
	if tokens == nil {
		return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "no credentials"}
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		if apiErr, ok := AsError(err); ok {
			return apiErr
		}
		return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "no usable credentials", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (e *Error) withStatus(status int) *Error {
	e.Status = status
	return e
}
