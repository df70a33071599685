package stage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestProbe_SucceedsAfterColdStart(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := Probe{Attempts: 5, Backoff: 10 * time.Millisecond}
	if err := p.Wait(context.Background(), srv.URL); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("probe hit %d times, want 3", hits.Load())
	}
}

func TestProbe_BoundedAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := Probe{Attempts: 4, Backoff: time.Millisecond}
	err := p.Wait(context.Background(), srv.URL)

	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("err = %v, want *UnreachableError", err)
	}
	if unreachable.Attempts != 4 || hits.Load() != 4 {
		t.Errorf("attempts = %d, hits = %d, want 4 each", unreachable.Attempts, hits.Load())
	}
}

func TestProbe_ConnectionRefused(t *testing.T) {
	p := Probe{Attempts: 2, Backoff: time.Millisecond}
	err := p.Wait(context.Background(), "http://127.0.0.1:1")

	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("err = %v, want *UnreachableError", err)
	}
}

func TestProbe_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Probe{Attempts: 10, Backoff: time.Hour}
	start := time.Now()
	err := p.Wait(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected error under cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Error("probe did not honor cancellation promptly")
	}
}
