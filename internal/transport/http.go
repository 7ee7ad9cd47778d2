package transport

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

	"github.com/sethvargo/go-retry"

	"github.com/graintrack/syncengine/internal/logging"
)

const (
	defaultTimeout    = 30 * time.Second
	retryAttempts     = 2
	retryBackoffMin   = 500 * time.Millisecond
	retryBackoffCap   = 5 * time.Second
	healthPath        = "/health"
	pullPath          = "/sync/pull"
	sinceQueryParam   = "since"
	authHeader        = "Authorization"
	contentTypeHeader = "Content-Type"
	jsonContentType   = "application/json"
)

// HTTPClient implements Client over net/http. Idempotent calls (GET, PUT,
// DELETE) are retried with fibonacci backoff on transient failures; POST is
// attempted once, since replaying a create could duplicate the record. The
// queue's own retry counting sits above this layer.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   TokenProvider
	log     logging.Logger
}

// NewHTTPClient builds a client for the given base URL. token may be nil for
// unauthenticated backends; a zero timeout falls back to the default.
func NewHTTPClient(baseURL string, timeout time.Duration, token TokenProvider, log logging.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
		log:     log,
	}
}

func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.withBackoff(ctx, http.MethodGet, path, query, nil)
}

func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*Response, error) {
	// single attempt: POST is not idempotent
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *HTTPClient) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.withBackoff(ctx, http.MethodPut, path, nil, body)
}

func (c *HTTPClient) Delete(ctx context.Context, path string) (*Response, error) {
	return c.withBackoff(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) withBackoff(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var resp *Response

	backoff := retry.WithCappedDuration(retryBackoffCap,
		retry.WithMaxRetries(retryAttempts, retry.NewFibonacci(retryBackoffMin)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		resp, err = c.do(ctx, method, path, query, body)
		if err == nil {
			return nil
		}
		if te, ok := asTransportError(err); ok && te.Transient() {
			c.log.Warn(ctx, "transient transport failure, retrying",
				"method", method, "path", path, "error", err.Error())
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set(contentTypeHeader, jsonContentType)
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain token: %w", err)
		}
		if token != "" {
			req.Header.Set(authHeader, "Bearer "+token)
		}
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Path: path, Message: err.Error()}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Path: path, Message: "reading body: " + err.Error()}
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			StatusCode: httpResp.StatusCode,
			Path:       path,
			Message:    errorMessage(raw, httpResp.Status),
		}
	}

	resp := &Response{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, resp); err != nil {
			return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return resp, nil
}

// errorMessage prefers the server's JSON message over the raw status line.
func errorMessage(raw []byte, status string) string {
	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return status
}

func asTransportError(err error) (*Error, bool) {
	te, ok := err.(*Error)
	return te, ok
}

func (c *HTTPClient) Pull(ctx context.Context, since *time.Time) (map[string][]ServerRecord, error) {
	query := url.Values{}
	if since != nil {
		query.Set(sinceQueryParam, since.UTC().Format(time.RFC3339))
	}

	resp, err := c.Get(ctx, pullPath, query)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]ServerRecord)
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode pull response: %w", err)
		}
	}
	return result, nil
}

func (c *HTTPClient) CreateRecord(ctx context.Context, table string, payload map[string]any) (string, error) {
	resp, err := c.Post(ctx, "/"+table, payload)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return "", fmt.Errorf("failed to decode create response for %s: %w", table, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create response for %s carries no id", table)
	}
	return created.ID, nil
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, table, serverID string, payload map[string]any) error {
	_, err := c.Put(ctx, "/"+table+"/"+serverID, payload)
	return err
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, table, serverID string) error {
	_, err := c.Delete(ctx, "/"+table+"/"+serverID)
	if IsNotFound(err) {
		// already gone remotely, idempotent delete
		return nil
	}
	return err
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, healthPath, nil)
	return err
}
