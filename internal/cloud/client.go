// Package cloud fetches listings from the Nature Remo cloud API.
package cloud

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacoelho/remo/internal/sanitizer"
)

// DefaultEndpoint is the production API.
const DefaultEndpoint = "https://api.nature.global"

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

var ErrNoToken = errors.New("cloud: access token is required")

// Document is a listing served by the API.
type Document string

const (
	Devices    Document = "devices"
	Appliances Document = "appliances"
)

// ParseDocument accepts "devices" and "appliances".
func ParseDocument(s string) (Document, error) {
	switch Document(s) {
	case Devices, Appliances:
		return Document(s), nil
	default:
		return "", fmt.Errorf("unknown document %q (want devices or appliances)", s)
	}
}

func (d Document) path() string {
	return "/1/" + string(d)
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cloud: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("cloud: unexpected status %d: %s", e.Code, e.Body)
}

// Client issues authenticated GET requests.
type Client struct {
	http     *http.Client
	endpoint string
	token    string
	logger   *slog.Logger
	redactor *sanitizer.Redactor
}

// NewHTTPClient creates a tuned HTTP client for polling the API.
func NewHTTPClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSClientConfig:        tlsConfig,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		IdleConnTimeout:        90 * time.Second,
		MaxIdleConns:           4,
		MaxIdleConnsPerHost:    2,
		MaxResponseHeaderBytes: 64 << 10,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// New returns a Client for endpoint. A nil httpClient or logger selects
// defaults.
func New(httpClient *http.Client, endpoint, token string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(nil, 30*time.Second)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		logger:   logger,
		// A fresh salt per client keeps redacted tokens unlinkable across runs.
		redactor: sanitizer.New(uuid.NewString(), token),
	}, nil
}

// Fetch requests doc and returns its body together with the declared
// Content-Length, or -1 when the server did not send one. The caller closes
// the body.
func (c *Client) Fetch(ctx context.Context, doc Document) (io.ReadCloser, int64, error) {
	url := c.endpoint + doc.path()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	debug := c.logger.Enabled(ctx, slog.LevelDebug)
	if debug {
		if dump, err := c.redactor.DumpRequest(req); err == nil {
			c.logger.DebugContext(ctx, "request", "dump", string(dump))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	if debug {
		if dump, err := c.redactor.DumpResponse(resp); err == nil {
			c.logger.DebugContext(ctx, "response headers", "dump", string(dump))
		}
	}
	c.logger.Debug("response",
		"url", url,
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, 0, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp.Body, resp.ContentLength, nil
}

// Input binds a Client to one document.
type Input struct {
	Client   *Client
	Document Document
}

func (in Input) Name() string {
	return in.Client.endpoint + in.Document.path()
}

func (in Input) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	return in.Client.Fetch(ctx, in.Document)
}
