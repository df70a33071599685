package stage

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Probe waits for an endpoint to become healthy with a bounded retry
// budget. Readiness is always re-checked per run; a previous success is
// never assumed.
type Probe struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// DefaultProbe returns a probe with a short per-request timeout and a
// modest retry budget suited to container cold starts.
func DefaultProbe() Probe {
	return Probe{
		Client:   &http.Client{Timeout: 2 * time.Second},
		Attempts: 10,
		Backoff:  500 * time.Millisecond,
	}
}

// Wait polls url until it returns 200 or the attempt budget is spent. The
// returned error is *UnreachableError when the budget runs out.
func (p Probe) Wait(ctx context.Context, url string) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &UnreachableError{URL: url, Attempts: i, Err: ctx.Err()}
			case <-time.After(p.Backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build probe request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
	}
	return &UnreachableError{URL: url, Attempts: attempts, Err: lastErr}
}
