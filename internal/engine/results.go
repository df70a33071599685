// Package engine orchestrates a verification pipeline run: build one
// artifact, execute the verification stages against it, and aggregate their
// results into a single composite verdict.
package engine

import (
	"fmt"
	"time"

	"github.com/tjfontaine/drydock/internal/artifact"
)

// StageKind classifies a verification stage.
type StageKind string

const (
	KindStatic      StageKind = "static"
	KindUnit        StageKind = "unit"
	KindIntegration StageKind = "integration"
	KindSystem      StageKind = "system"
)

// Status is the terminal outcome of a stage. A stage transitions to exactly
// one status per run and is never re-evaluated.
type Status string

const (
	// StatusPassed means every check in the stage succeeded.
	StatusPassed Status = "passed"
	// StatusFailed means at least one check failed or the stage could not
	// complete for a reason attributable to the code under test.
	StatusFailed Status = "failed"
	// StatusSkipped means the stage did not run because of an environment
	// condition, not a code defect. Distinct from failure so aggregation can
	// tolerate it.
	StatusSkipped Status = "skipped"
)

// CaseStatus is the outcome of one test case within a stage.
type CaseStatus string

const (
	CasePassed  CaseStatus = "passed"
	CaseFailed  CaseStatus = "failed"
	CaseErrored CaseStatus = "errored"
	CaseSkipped CaseStatus = "skipped"
)

// CaseResult records one case's outcome. The full list is always preserved
// in the stage result; stages never collapse cases into a bare boolean.
type CaseResult struct {
	Name     string        `json:"name"`
	Status   CaseStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// StageResult is the terminal result of one stage execution.
type StageResult struct {
	Stage    string        `json:"stage"`
	Kind     StageKind     `json:"kind"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Required bool          `json:"required"`
	Cases    []CaseResult  `json:"cases,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Passed builds a passing stage result.
func Passed(cases ...CaseResult) StageResult {
	return StageResult{Status: StatusPassed, Cases: cases}
}

// Failedf builds a failing stage result with a formatted reason.
func Failedf(format string, args ...any) StageResult {
	return StageResult{Status: StatusFailed, Reason: fmt.Sprintf(format, args...)}
}

// Skippedf builds a skipped stage result with a formatted reason.
func Skippedf(format string, args ...any) StageResult {
	return StageResult{Status: StatusSkipped, Reason: fmt.Sprintf(format, args...)}
}

// Verdict is the composite outcome gating merge eligibility.
type Verdict string

const (
	VerdictPassed Verdict = "passed"
	VerdictFailed Verdict = "failed"
)

// RunReport is the full record of one pipeline run.
type RunReport struct {
	ID       string             `json:"id"`
	Artifact *artifact.Artifact `json:"artifact,omitempty"`
	Stages   []StageResult      `json:"stages"`
	Verdict  Verdict            `json:"verdict"`
	// Warnings carries non-blocking observations, e.g. an entirely skipped
	// optional stage.
	Warnings []string  `json:"warnings,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}
