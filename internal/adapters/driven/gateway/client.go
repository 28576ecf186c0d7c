package gateway

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
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// HeaderIdempotencyKey carries the create correlation ID.
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is the API root, e.g. https://boards.example.com/api.
	BaseURL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport; the bearer token is layered on top.
	HTTPClient *http.Client
}

// Client is the HTTP driven.RemoteGateway.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

var _ driven.RemoteGateway = (*Client)(nil)

// NewClient validates cfg and builds a client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote base URL is required", domain.ErrInvalidInput)
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid remote base URL %q", domain.ErrInvalidInput, cfg.BaseURL)
	}

	hc := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		// oauth2.NewClient takes its base transport from the context.
		hc = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hc), ts)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc.Timeout = timeout

	return &Client{base: base, http: hc, log: logger.Named("gateway")}, nil
}

type createBody struct {
	Name          string          `json:"name"`
	CorrelationID string          `json:"correlationId"`
	Snapshot      domain.Snapshot `json:"snapshot,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

type updateBody struct {
	Snapshot domain.Snapshot `json:"snapshot,omitempty"`
	Name     *string         `json:"name,omitempty"`
}

// Create creates a board. The correlation ID is sent as the idempotency key,
// so a retried create returns the board made by the first attempt.
func (c *Client) Create(ctx context.Context, req domain.CreateRequest) (string, error) {
	if req.Scope == "" || req.CorrelationID == "" {
		return "", fmt.Errorf("%w: create needs a scope and a correlation ID", domain.ErrInvalidInput)
	}

	path := "/workspaces/" + url.PathEscape(req.Scope) + "/boards"
	body := createBody{Name: req.Name, CorrelationID: req.CorrelationID, Snapshot: req.Snapshot}
	headers := http.Header{HeaderIdempotencyKey: []string{req.CorrelationID}}

	var out createResponse
	if err := c.do(ctx, http.MethodPost, path, headers, body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("POST %s: response carried no board id", path)
	}
	c.log.Debug("board created", zap.String("correlation_id", req.CorrelationID), zap.String("id", out.ID))
	return out.ID, nil
}

// Update replaces a board's content, its name, or both.
func (c *Client) Update(ctx context.Context, req domain.UpdateRequest) error {
	if req.TargetID == "" || (req.Snapshot.IsEmpty() && req.Name == nil) {
		return fmt.Errorf("%w: update needs a target and a snapshot or name", domain.ErrInvalidInput)
	}
	path := "/boards/" + url.PathEscape(req.TargetID)
	return c.do(ctx, http.MethodPatch, path, nil, updateBody{Snapshot: req.Snapshot, Name: req.Name}, nil)
}

// Delete removes a board. A board that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, targetID string) error {
	if targetID == "" {
		return fmt.Errorf("%w: delete needs a target", domain.ErrInvalidInput)
	}
	path := "/boards/" + url.PathEscape(targetID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	if isGone(err) {
		c.log.Debug("board already deleted", zap.String("id", targetID))
		return nil
	}
	return err
}

func isGone(err error) bool {
	var serr *StatusError
	return errors.As(err, &serr) && (serr.StatusCode == http.StatusNotFound || serr.StatusCode == http.StatusGone)
}

// do sends one request. Transport failures wrap domain.ErrGatewayUnavailable;
// non-2xx responses become *StatusError.
func (c *Client) do(ctx context.Context, method, path string, headers http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrGatewayUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: parseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now()),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
