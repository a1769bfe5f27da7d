package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client talks to the external credit-bureau gateway: login, program
// listing, batch soft-pull submission. One Client is shared process-wide;
// the token cache is the only mutable state and refresh is a critical
// section (singleflight) so concurrent callers trigger at most one login.
type Client struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	login    singleflight.Group
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether all gateway credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.Username != "" && c.cfg.Password != "" && c.cfg.CompanyID != ""
}

// MaxBatchSize is the bureau-imposed per-call record cap. The orchestrator
// chunks to this; SubmitBatch rejects anything larger.
func (c *Client) MaxBatchSize() int { return c.cfg.MaxBatchSize }

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// Authenticate returns a bearer token, reusing the cached one while it has
// more than refreshBuffer of life left.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExp.Add(-refreshBuffer)) {
		tok := c.token
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.login.Do("login", func() (any, error) {
		// Every waiter shares this one flight, so it must not die with the
		// caller that happened to start it. The client timeout still bounds
		// each attempt.
		ctx := context.WithoutCancel(ctx)
		body := map[string]string{
			"username":  c.cfg.Username,
			"password":  c.cfg.Password,
			"companyId": c.cfg.CompanyID,
		}
		var out loginResponse
		if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
			return nil, err
		}
		if out.Token == "" {
			return nil, fmt.Errorf("%w: empty token from login", ErrGatewayUnavailable)
		}
		c.mu.Lock()
		c.token = out.Token
		c.tokenExp = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
		c.mu.Unlock()
		return out.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type programsResponse struct {
	Programs []Program `json:"programs"`
}

// ListPrograms fetches the gateway's available prescreen programs.
func (c *Client) ListPrograms(ctx context.Context) ([]Program, error) {
	tok, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	var out programsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/programs", tok, nil, &out); err != nil {
		return nil, err
	}
	return out.Programs, nil
}

// SubmitBatch submits up to MaxBatchSize records for a soft pull. Per-record
// no-hit/mismatch and validation failures come back inside the response;
// only transport, auth, and server-side errors are returned as an error.
func (c *Client) SubmitBatch(ctx context.Context, programID string, records []Record) (*SubmitResponse, error) {
	if len(records) == 0 {
		return &SubmitResponse{}, nil
	}
	if len(records) > c.cfg.MaxBatchSize {
		return nil, fmt.Errorf("bureau: %d records exceeds batch limit %d", len(records), c.cfg.MaxBatchSize)
	}
	tok, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"programId": programID,
		"records":   records,
	}
	var out SubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/prescreen/batch", tok, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Check probes gateway connectivity for the admin status endpoint.
func (c *Client) Check(ctx context.Context) string {
	if !c.Configured() {
		return StatusNotConfigured
	}
	if _, err := c.Authenticate(ctx); err != nil {
		return StatusUnreachable
	}
	return StatusOK
}

// InvalidateToken drops the cached token so the next call logs in again.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExp = time.Time{}
	c.mu.Unlock()
}

// doJSON performs one logical call with exponential backoff on network and
// 5xx failures, up to MaxAttempts. 4xx responses are never retried: a 400
// with a parsable failures body is decoded into out (per-record failures),
// anything else 4xx is a terminal error.
func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrGatewayTimeout, ctx.Err())
			}
			backoff *= 2
		}

		retryable, err := c.doOnce(ctx, method, path, token, in, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path, token string, in, out any) (retryable bool, err error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return false, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return true, fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
		}
		return true, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return true, fmt.Errorf("%w: reading body: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		// Batch validation rejections carry per-record failures; surface
		// them to the caller instead of retrying.
		if sr, ok := out.(*SubmitResponse); ok {
			var parsed SubmitResponse
			if json.Unmarshal(raw, &parsed) == nil && len(parsed.Failures) > 0 {
				*sr = parsed
				return false, nil
			}
		}
		return false, fmt.Errorf("bureau: bad request: %s", truncate(raw, 200))
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("bureau: status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("bureau: decoding response: %w", err)
		}
	}
	return false, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
