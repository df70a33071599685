// Package stage provides the verification stage runners executed by the
// engine: static checks, unit cases, in-process integration cases and
// black-box system cases against a running service instance.
package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/tjfontaine/drydock/internal/engine"
)

const resultTolerance = 1e-9

// HTTPCase is one request/response check against the service API. The same
// table drives both the integration stage (in-process handler) and the
// system stage (running container), so a case cannot pass one and
// silently mean something else in the other.
type HTTPCase struct {
	Name string
	// Path includes the query string, e.g. "/power?base=2&exp=3".
	Path       string
	WantStatus int
	// WantResult, when set, requires the body to decode as {"result": x}
	// with x within tolerance.
	WantResult *float64
	// WantError requires a non-empty "error" field in the body.
	WantError bool
}

func want(v float64) *float64 { return &v }

// DefaultHTTPCases returns the standard verification table for the math
// service API.
func DefaultHTTPCases() []HTTPCase {
	return []HTTPCase{
		{Name: "power", Path: "/power?base=2&exp=3", WantStatus: http.StatusOK, WantResult: want(8)},
		{Name: "power fractional", Path: "/power?base=9&exp=0.5", WantStatus: http.StatusOK, WantResult: want(3)},
		{Name: "distance", Path: "/distance?x=3&y=4", WantStatus: http.StatusOK, WantResult: want(5)},
		{Name: "distance origin", Path: "/distance?x=0&y=0", WantStatus: http.StatusOK, WantResult: want(0)},
		{Name: "add", Path: "/add?a=10&b=20", WantStatus: http.StatusOK, WantResult: want(30)},
		{Name: "add negative", Path: "/add?a=-5&b=2.5", WantStatus: http.StatusOK, WantResult: want(-2.5)},
		{Name: "power missing param", Path: "/power?base=2", WantStatus: http.StatusBadRequest, WantError: true},
		{Name: "distance non-numeric", Path: "/distance?x=abc&y=4", WantStatus: http.StatusBadRequest, WantError: true},
		{Name: "add missing both", Path: "/add", WantStatus: http.StatusBadRequest, WantError: true},
		{Name: "health", Path: "/healthz", WantStatus: http.StatusOK},
	}
}

// RunHTTPCases executes the case table against baseURL and returns one
// result per case. Transport errors mark the case errored rather than
// failed so environment trouble is distinguishable from wrong answers.
func RunHTTPCases(ctx context.Context, client *http.Client, baseURL string, cases []HTTPCase) []engine.CaseResult {
	if client == nil {
		client = http.DefaultClient
	}
	results := make([]engine.CaseResult, 0, len(cases))
	for _, c := range cases {
		start := time.Now()
		result := runHTTPCase(ctx, client, baseURL, c)
		result.Duration = time.Since(start)
		results = append(results, result)
	}
	return results
}

func runHTTPCase(ctx context.Context, client *http.Client, baseURL string, c HTTPCase) engine.CaseResult {
	result := engine.CaseResult{Name: c.Name}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+c.Path, nil)
	if err != nil {
		result.Status = engine.CaseErrored
		result.Message = fmt.Sprintf("build request: %v", err)
		return result
	}
	resp, err := client.Do(req)
	if err != nil {
		result.Status = engine.CaseErrored
		result.Message = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		result.Status = engine.CaseFailed
		result.Message = fmt.Sprintf("server error %d for %s", resp.StatusCode, c.Path)
		return result
	}
	if resp.StatusCode != c.WantStatus {
		result.Status = engine.CaseFailed
		result.Message = fmt.Sprintf("status %d, want %d", resp.StatusCode, c.WantStatus)
		return result
	}

	if c.WantResult != nil {
		var body struct {
			Result float64 `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			result.Status = engine.CaseFailed
			result.Message = fmt.Sprintf("decode body: %v", err)
			return result
		}
		if math.Abs(body.Result-*c.WantResult) > resultTolerance {
			result.Status = engine.CaseFailed
			result.Message = fmt.Sprintf("result %g, want %g", body.Result, *c.WantResult)
			return result
		}
	}
	if c.WantError {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			result.Status = engine.CaseFailed
			result.Message = "error body missing error field"
			return result
		}
	}

	result.Status = engine.CasePassed
	return result
}

// assess folds case results into a stage result. Any failed or errored case
// fails the stage; the full case list is carried either way.
func assess(cases []engine.CaseResult) engine.StageResult {
	failed := 0
	for _, c := range cases {
		if c.Status == engine.CaseFailed || c.Status == engine.CaseErrored {
			failed++
		}
	}
	if failed > 0 {
		result := engine.Failedf("%d of %d cases failed", failed, len(cases))
		result.Cases = cases
		return result
	}
	return engine.Passed(cases...)
}
