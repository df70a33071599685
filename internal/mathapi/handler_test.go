package mathapi

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	NewHandler(nil).Routes().ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) float64 {
	t.Helper()
	var body resultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return body.Result
}

func TestHandler_ValidRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		want float64
	}{
		{"power", "/power?base=2&exp=3", 8},
		{"distance", "/distance?x=3&y=4", 5},
		{"add", "/add?a=10&b=20", 30},
		{"power negative exp", "/power?base=2&exp=-1", 0.5},
		{"add floats", "/add?a=1.5&b=2.25", 3.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
			}
			if got := decodeResult(t, rec); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("result = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandler_InvalidParamsAreClientErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"power non-numeric base", "/power?base=abc&exp=3"},
		{"power missing exp", "/power?base=2"},
		{"distance missing both", "/distance"},
		{"add non-numeric b", "/add?a=1&b=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if rec.Code >= http.StatusInternalServerError {
				t.Errorf("validation failure surfaced as server error: %d", rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Error == "" {
				t.Error("expected non-empty error message")
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	rec := doRequest(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestRouter_AppliesMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	Router(nil).ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header from middleware stack")
	}
}
