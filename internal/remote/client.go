// Package remote is the boundary to the console's HTTP API. It returns
// decoded but otherwise untouched JSON; shaping it is up to the caller.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/common"
	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/normalize"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

type Client interface {
	// FetchJSON GETs path on behalf of principal and returns the decoded
	// body. Numbers are json.Number.
	FetchJSON(ctx context.Context, path string, principal string) (any, error)
}

type HTTPClient struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  logging.Logger
}

var _ Client = (*HTTPClient)(nil)

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

func NewHTTPClient(baseURL, token string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		token:   token,
		http:    http.DefaultClient,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) endpoint(path, principal string) string {
	u := *c.baseURL
	u.Path = u.Path + "/" + strings.TrimLeft(path, "/")

	if principal != "" {
		q := u.Query()
		q.Set(common.PrincipalQueryParam, principal)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *HTTPClient) FetchJSON(ctx context.Context, path string, principal string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, principal), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapError(ctx, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.logger.Debug(ctx, "api request failed", "path", path, "status", resp.StatusCode)
		return nil, apiErr
	}

	body, err := normalize.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return body, nil
}

func (c *HTTPClient) mapError(ctx context.Context, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.logger.Debug(ctx, "api transport error", "path", path, "error", err)
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// errorMessage pulls a message field out of an error body, if it is JSON.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}

	m, ok := normalize.UnwrapJSON(data).(map[string]any)
	if !ok {
		return ""
	}
	v, ok := normalize.Field(m, "message", "error", "detail", "error_description", "msg")
	if !ok {
		return ""
	}
	s, _ := normalize.AsString(v)
	return s
}

// IsTransient reports whether err is worth retrying on a later pass.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
