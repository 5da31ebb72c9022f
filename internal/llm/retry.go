package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// retryPolicy is the backoff shared by all runtimes.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// attemptFunc handles one response. It returns retry=true when the status
// is transient, along with an optional server-requested wait.
type attemptFunc func(resp *http.Response) (retry bool, wait time.Duration, err error)

// do posts payload until handle succeeds, a non-retryable error occurs or
// attempts run out. Network errors are passed to onNetErr for wrapping.
func (p retryPolicy) do(ctx context.Context, client *http.Client, endpoint string, payload []byte, header http.Header, onNetErr func(error) error, handle attemptFunc) error {
	backoff := p.baseDelay
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		for k, vals := range header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
		resp, err := client.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < p.maxAttempts {
				lastErr = err
				if err := sleepCtx(ctx, p.capped(withJitter(backoff))); err != nil {
					return err
				}
				backoff *= 2
				continue
			}
			return onNetErr(err)
		}
		retry, wait, err := func() (bool, time.Duration, error) {
			defer resp.Body.Close()
			return handle(resp)
		}()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == p.maxAttempts {
			break
		}
		if wait <= 0 {
			wait = p.capped(withJitter(backoff))
			backoff *= 2
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (p retryPolicy) capped(d time.Duration) time.Duration {
	if p.maxDelay > 0 && d > p.maxDelay {
		return p.maxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF)
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	keys := []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"}
	for _, k := range keys {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
