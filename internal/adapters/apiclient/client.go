// Package apiclient is the REST client for the roster backend. It performs one
// request per call and never retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/xcroster/internal/domain/types"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the roster REST API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logger.Logger
	timeout time.Duration
}

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.http.Timeout == 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op     string
	method string
	path   string
	in     any
	out    any
	// bearer overrides the token source when non-empty.
	bearer string
	auth   bool
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	err := c.roundTrip(ctx, cl)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordAPIRequest(cl.op, outcome, float64(time.Since(start).Milliseconds()))
	return err
}

func (c *Client) roundTrip(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.in != nil {
		raw, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+"/api"+cl.path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, reqID)

	token := cl.bearer
	if token == "" && cl.auth && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "api request failed",
			logger.String("op", cl.op),
			logger.String("request_id", reqID),
			logger.Error(err))
		return fmt.Errorf("%s: %w: %w", cl.op, ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug(ctx, "api request",
		logger.String("op", cl.op),
		logger.String("method", cl.method),
		logger.String("path", cl.path),
		logger.Int("status", resp.StatusCode),
		logger.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb types.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, &eb)
		return newStatusError(cl.op, resp.StatusCode, eb.Text())
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && err != io.EOF {
		return fmt.Errorf("%s: %w: %w", cl.op, ErrDecode, err)
	}
	return nil
}
