package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type API struct {
	client  *retryablehttp.Client
	baseURL string
	token   func() string
}

type Option func(*API)

// WithRetries sets how many times a failed request is retried. Zero
// disables retries.
func WithRetries(n int) Option {
	return func(a *API) { a.client.RetryMax = n }
}

func WithTimeout(d time.Duration) Option {
	return func(a *API) { a.client.HTTPClient.Timeout = d }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.client.HTTPClient = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.client.Logger = leveledLogger{logger.Sugar()}
		}
	}
}

// WithToken attaches a bearer token to every request when the provider
// returns a non-empty value.
func WithToken(provider func() string) Option {
	return func(a *API) { a.token = provider }
}

func NewAPI(baseURL string, opts ...Option) *API {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	a := &API{client: client, baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *API) BaseURL() string { return a.baseURL }

func (a *API) Get(ctx context.Context, path string, params url.Values, v any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil, v)
}

func (a *API) Post(ctx context.Context, path string, body any, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	return a.do(ctx, http.MethodPost, path, payload, v)
}

func (a *API) do(ctx context.Context, method, path string, body []byte, v any) error {
	var raw interface{}
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequest(method, a.baseURL+path, raw)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if a.token != nil {
		if token := a.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// leveledLogger adapts zap to retryablehttp's LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
