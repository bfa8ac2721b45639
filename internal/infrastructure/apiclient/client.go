// Package apiclient executes requests against the storefront services with
// uniform authentication, payload encoding and error normalisation.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/smartretail/storefront/internal/core/domain"
	"github.com/smartretail/storefront/internal/core/ports"
	"github.com/smartretail/storefront/internal/metrics"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
	mimeJSON            = "application/json"
)

// Request describes one call. Body may be nil, a *Form (sent as multipart),
// json.RawMessage (sent as-is) or any value encodable as JSON.
type Request struct {
	// Service labels metrics and logs, e.g. "orders".
	Service string
	Method  string
	URL     string
	Body    any
	Header  http.Header
	// Token overrides the stored token for this call.
	Token string
	// SkipAuth sends the request without any bearer credential.
	SkipAuth bool
}

// Response is a successful call. Body is the parsed JSON payload verbatim;
// non-JSON payloads arrive wrapped as {"message": <text>}.
type Response struct {
	Status int
	Header http.Header
	Body   json.RawMessage
}

// Client is safe for concurrent use.
type Client struct {
	http    *http.Client
	tokens  ports.TokenStore
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLimiter makes every call wait for a token from l before sending.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client that reads the bearer token from tokens on every call.
// A nil tokens store sends every request unauthenticated.
func New(tokens ports.TokenStore, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{},
		tokens: tokens,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req and decodes the successful body into out, which may be nil.
// No schema validation is applied beyond what json.Unmarshal enforces.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &domain.RequestError{
			Kind:    domain.KindDecode,
			Method:  req.Method,
			URL:     req.URL,
			Status:  resp.Status,
			Message: fmt.Sprintf("decode response: %v", err),
			Err:     err,
		}
	}
	return nil
}

// Call performs req and returns the parsed body. Any status outside 200-299
// fails with a *domain.RequestError of kind KindStatus, whatever the body says.
func (c *Client) Call(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.observe(req, start, err) }()

	httpResp, raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	body, err := parseBody(httpResp.Header.Get(headerContentType), raw)
	if err != nil {
		return nil, &domain.RequestError{
			Kind:    domain.KindDecode,
			Method:  req.Method,
			URL:     req.URL,
			Status:  httpResp.StatusCode,
			Message: fmt.Sprintf("parse response: %v", err),
			Err:     err,
		}
	}

	if !isSuccess(httpResp.StatusCode) {
		return nil, statusError(req, httpResp, body)
	}

	return &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

// Download performs req and returns the raw successful body with its content
// type. Failures are normalised exactly as in Call.
func (c *Client) Download(ctx context.Context, req Request) (data []byte, contentType string, err error) {
	start := time.Now()
	defer func() { c.observe(req, start, err) }()

	httpResp, raw, err := c.send(ctx, req)
	if err != nil {
		return nil, "", err
	}
	ct := httpResp.Header.Get(headerContentType)
	if !isSuccess(httpResp.StatusCode) {
		body, perr := parseBody(ct, raw)
		if perr != nil {
			body = nil
		}
		return nil, "", statusError(req, httpResp, body)
	}
	return raw, ct, nil
}

func (c *Client) send(ctx context.Context, req Request) (*http.Response, []byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	req.Method = method

	if err := validateURL(req.URL); err != nil {
		return nil, nil, &domain.RequestError{
			Kind:    domain.KindInvalid,
			Method:  method,
			URL:     req.URL,
			Message: err.Error(),
			Err:     err,
		}
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, nil, &domain.RequestError{
			Kind:    domain.KindInvalid,
			Method:  method,
			URL:     req.URL,
			Message: err.Error(),
			Err:     err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, nil, &domain.RequestError{Kind: domain.KindInvalid, Method: method, URL: req.URL, Message: err.Error(), Err: err}
	}

	httpReq.Header.Set(headerContentType, contentType)
	if token := c.bearer(ctx, req); token != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+token)
	}
	for k, vs := range req.Header {
		if _, isForm := req.Body.(*Form); isForm && strings.EqualFold(k, headerContentType) {
			continue
		}
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	requestID := httpReq.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		httpReq.Header.Set(headerRequestID, requestID)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, &domain.RequestError{Kind: domain.KindTransport, Method: method, URL: req.URL, Err: err}
		}
	}

	metrics.RequestsInFlight.Inc()
	httpResp, err := c.http.Do(httpReq)
	metrics.RequestsInFlight.Dec()
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", requestID).Str("service", req.Service).
			Str("method", method).Str("url", req.URL).Msg("request failed in transport")
		return nil, nil, &domain.RequestError{Kind: domain.KindTransport, Method: method, URL: req.URL, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, &domain.RequestError{
			Kind:   domain.KindTransport,
			Method: method,
			URL:    req.URL,
			Status: httpResp.StatusCode,
			Err:    fmt.Errorf("read response body: %w", err),
		}
	}

	c.log.Debug().
		Str("request_id", requestID).
		Str("service", req.Service).
		Str("method", method).
		Str("url", req.URL).
		Int("status", httpResp.StatusCode).
		Int("bytes", len(raw)).
		Msg("api request")

	return httpResp, raw, nil
}

// bearer resolves the credential for req. A store read failure is treated as
// "no token" so that the service, not the client, decides on access.
func (c *Client) bearer(ctx context.Context, req Request) string {
	if req.SkipAuth {
		return ""
	}
	if req.Token != "" {
		return req.Token
	}
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoToken) {
			c.log.Warn().Err(err).Msg("token store read failed; sending request without credentials")
		}
		return ""
	}
	return token
}

func (c *Client) observe(req Request, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var re *domain.RequestError
		if errors.As(err, &re) {
			outcome = string(re.Kind)
		}
	}
	service := req.Service
	if service == "" {
		service = "unknown"
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	metrics.RequestsTotal.WithLabelValues(service, method, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, mimeJSON, nil
	case *Form:
		return b.encode()
	case json.RawMessage:
		return bytes.NewReader(b), mimeJSON, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), mimeJSON, nil
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid request URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid request URL %q: missing scheme or host", raw)
	}
	return nil
}

// parseBody parses declared-JSON bodies and wraps anything else as a message.
func parseBody(contentType string, raw []byte) (json.RawMessage, error) {
	if isJSON(contentType) {
		if !json.Valid(raw) {
			return nil, errors.New("invalid JSON in response body")
		}
		return json.RawMessage(raw), nil
	}
	wrapped, err := json.Marshal(map[string]string{"message": string(raw)})
	if err != nil {
		return nil, err
	}
	return wrapped, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == mimeJSON || strings.HasSuffix(mt, "+json")
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// statusError picks the message in priority order: body.error, body.message,
// then the status text.
func statusError(req Request, resp *http.Response, body json.RawMessage) *domain.RequestError {
	re := &domain.RequestError{
		Kind:   domain.KindStatus,
		Method: req.Method,
		URL:    req.URL,
		Status: resp.StatusCode,
	}

	var obj map[string]any
	if len(body) > 0 && json.Unmarshal(body, &obj) == nil {
		re.Body = obj
		if s, ok := obj["error"].(string); ok && s != "" {
			re.ServerError = s
			re.Message = s
		} else if s, ok := obj["message"].(string); ok && s != "" {
			re.Message = s
		}
	}
	if re.Message == "" {
		re.Message = statusText(resp)
	}
	return re
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
