package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client posts single GraphQL operations to one upstream endpoint with
// bounded retries and exponential backoff. It looks synchronous to its
// caller; the backoff sleep suspends only the calling goroutine.
type Client struct {
	name        string
	endpoint    string
	httpClient  *http.Client
	backoffBase time.Duration
	logger      *zap.Logger
}

// NewClient creates a fetch client for one upstream provider. The name is
// used for logs and metrics.
func NewClient(name, endpoint string, timeout, backoffBase time.Duration, logger *zap.Logger) *Client {
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &Client{
		name:     name,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		backoffBase: backoffBase,
		logger:      logger,
	}
}

// Request describes one upstream call.
type Request struct {
	// Op names the operation for error reporting, e.g. "get token balances".
	Op string

	Query     string
	Variables map[string]interface{}

	// Authorization is forwarded verbatim as the Authorization header.
	Authorization string

	Policy RetryPolicy
}

type graphqlError struct {
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Do performs the call, retrying per the request's policy with delays of
// base, 2*base before attempts 2 and 3. On exhaustion it returns an *Error
// wrapping the last cause.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	maxAttempts := req.Policy.maxAttempts()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			upstreamRetriesTotal.WithLabelValues(c.name).Inc()
			if err := c.sleep(ctx, c.backoffBase<<(attempt-2)); err != nil {
				return nil, &Error{Op: req.Op, Kind: KindTransient, Err: err}
			}
		}

		data, retryable, err := c.attempt(ctx, req)
		if err == nil {
			upstreamRequestsTotal.WithLabelValues(c.name, "success").Inc()
			return data, nil
		}
		lastErr = err

		if !retryable {
			upstreamRequestsTotal.WithLabelValues(c.name, "fatal").Inc()
			return nil, &Error{Op: req.Op, Kind: KindFatal, Err: err}
		}

		c.logger.Warn("Upstream call failed, retrying",
			zap.String("provider", c.name),
			zap.String("op", req.Op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
	}

	upstreamRequestsTotal.WithLabelValues(c.name, "exhausted").Inc()
	return nil, &Error{Op: req.Op, Kind: KindTransient, Err: lastErr}
}

// attempt performs a single HTTP round trip. The second return value
// reports whether the failure may be retried.
func (c *Client) attempt(ctx context.Context, req Request) (json.RawMessage, bool, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     req.Query,
		"variables": req.Variables,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures are always retryable.
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, req.Policy.retryStatus(resp.StatusCode), fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope graphqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	// A successful HTTP status with an application-level error array is a
	// fatal rejection under every policy.
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		path := "unknown path"
		if len(first.Path) > 0 {
			path = strings.Join(first.Path, ".")
		}
		return nil, false, fmt.Errorf("graphql error at %s: %s", path, first.Message)
	}

	if envelope.Data == nil {
		return nil, false, fmt.Errorf("no data returned from upstream")
	}

	return envelope.Data, false, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
