package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chatkit/src/models"

	"golang.org/x/time/rate"
)

const maxErrorBody = 4096

// HTTPClient posts requests to the answer endpoint.
type HTTPClient struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// ClientOptions configures an HTTPClient.
type ClientOptions struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

func NewHTTPClient(opts ClientOptions) *HTTPClient {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		httpc:    httpc,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
}

// Answer posts req and decodes the reply. Non-2xx statuses return a
// *models.RemoteError carrying the body.
func (c *HTTPClient) Answer(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("answer request failed", "status", resp.StatusCode, "elapsed", time.Since(start))
		return nil, &models.RemoteError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}
	c.logger.Debug("answer received", "status", resp.StatusCode, "elapsed", time.Since(start))
	return &out, nil
}
