package directory

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/atinylittleshell/userfind/pkg/userline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public directory used when nothing is configured.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// RequestIDHeader carries the per-request id so server logs can be correlated.
const RequestIDHeader = "X-Request-Id"

// maxBodySize caps how much of a response is read
const maxBodySize = 4 << 20

// Client looks up users in a remote directory over HTTP.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
	logger     *zap.Logger
}

// NewClient creates a directory client. An empty baseURL selects
// DefaultBaseURL; a zero timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: baseURL,
		logger:  logger,
	}
}

// FindByUsername issues GET {base}/users?username={username} and returns the
// decoded records. Filtering for an exact match is left to the caller.
func (c *Client) FindByUsername(ctx context.Context, username string) ([]userline.UserRecord, error) {
	endpoint, err := c.usersURL(username)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Encoding", "br, gzip")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	logger := c.logger.With(zap.String("request_id", requestID))
	logger.Debug("directory request", zap.String("url", endpoint))
	started := time.Now()

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("directory lookup aborted: %w", ctxErr)
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("directory lookup aborted: %w", ctxErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, &MalformedResponseError{Err: err}
		}
		body = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	users, err := decodeUsers(body)
	if err != nil {
		return nil, err
	}

	logger.Debug("directory response",
		zap.Int("status", resp.StatusCode),
		zap.Int("users", len(users)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return users, nil
}

func (c *Client) usersURL(username string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid directory url %q: %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("users")
	query := endpoint.Query()
	query.Set("username", username)
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

// readBody reads the response, undoing brotli or gzip content encoding.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, maxBodySize)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "br":
		reader = brotli.NewReader(reader)
	case "gzip":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// decodeUsers accepts only a JSON array; null, objects and scalars are malformed.
func decodeUsers(body []byte) ([]userline.UserRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Err: errors.New("expected a JSON array")}
	}

	var users []userline.UserRecord
	if err := json.Unmarshal(trimmed, &users); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if users == nil {
		users = []userline.UserRecord{}
	}
	return users, nil
}
