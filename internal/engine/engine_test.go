package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tjfontaine/drydock/internal/artifact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubBuilder struct {
	art   *artifact.Artifact
	err   error
	calls int
}

func (b *stubBuilder) Build(ctx context.Context, src artifact.Source) (*artifact.Artifact, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.art, nil
}

type stubStore struct {
	mu    sync.Mutex
	saved []*RunReport
	err   error
}

func (s *stubStore) SaveRun(ctx context.Context, report *RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, report)
	return s.err
}

type stubRunner struct {
	name     string
	kind     StageKind
	required bool
	result   StageResult
	panics   bool

	mu   sync.Mutex
	runs int
}

func (r *stubRunner) Name() string    { return r.name }
func (r *stubRunner) Kind() StageKind { return r.kind }
func (r *stubRunner) Required() bool  { return r.required }

func (r *stubRunner) Run(ctx context.Context, art *artifact.Artifact) StageResult {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	if r.panics {
		panic("boom")
	}
	return r.result
}

func (r *stubRunner) ranTimes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func testArtifact() *artifact.Artifact {
	return &artifact.Artifact{ID: "sha256:deadbeef", Tag: "drydock/test:1", Port: 8080, CreatedAt: time.Now()}
}

func TestEngine_Verify_AllStagesPass(t *testing.T) {
	static := &stubRunner{name: "style", kind: KindStatic, required: true, result: Passed()}
	unit := &stubRunner{name: "unit", kind: KindUnit, required: true, result: Passed(
		CaseResult{Name: "power", Status: CasePassed},
	)}
	integ := &stubRunner{name: "integration", kind: KindIntegration, required: true, result: Passed()}
	system := &stubRunner{name: "system", kind: KindSystem, result: Passed()}

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(static), WithRunner(unit), WithRunner(integ), WithRunner(system),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if report.Verdict != VerdictPassed {
		t.Fatalf("verdict = %s, want %s", report.Verdict, VerdictPassed)
	}
	if len(report.Stages) != 4 {
		t.Fatalf("got %d stage results, want 4", len(report.Stages))
	}
	for _, s := range report.Stages {
		if s.Stage == "" || s.Kind == "" {
			t.Errorf("stage result missing identity: %+v", s)
		}
	}
	if report.Stages[2].Stage != "integration" || report.Stages[3].Stage != "system" {
		t.Errorf("integration and system must run after the fan-out stages: %+v", report.Stages)
	}
	if report.ID == "" || report.Finished.Before(report.Started) {
		t.Errorf("report timing not stamped: %+v", report)
	}
}

func TestEngine_Verify_FailureDoesNotAbortRemainingStages(t *testing.T) {
	unit := &stubRunner{name: "unit", kind: KindUnit, required: true, result: Failedf("2 cases failed")}
	integ := &stubRunner{name: "integration", kind: KindIntegration, required: true, result: Passed()}
	system := &stubRunner{name: "system", kind: KindSystem, result: Passed()}

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(unit), WithRunner(integ), WithRunner(system),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if report.Verdict != VerdictFailed {
		t.Fatalf("verdict = %s, want %s", report.Verdict, VerdictFailed)
	}
	if integ.ranTimes() != 1 || system.ranTimes() != 1 {
		t.Errorf("later stages must still run after a failure: integ=%d system=%d", integ.ranTimes(), system.ranTimes())
	}
}

func TestEngine_Verify_OptionalSkipWarnsWithoutFailing(t *testing.T) {
	system := &stubRunner{name: "system", kind: KindSystem, required: false,
		result: Skippedf("runtime unreachable")}

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(system),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if report.Verdict != VerdictPassed {
		t.Fatalf("optional skip must not fail the run, verdict = %s", report.Verdict)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "runtime unreachable") {
		t.Errorf("warnings = %v, want one mentioning the skip reason", report.Warnings)
	}
}

func TestEngine_Verify_RequiredSkipFails(t *testing.T) {
	unit := &stubRunner{name: "unit", kind: KindUnit, required: true,
		result: Skippedf("no cases discovered")}

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(unit),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if report.Verdict != VerdictFailed {
		t.Fatalf("required skip must fail the run, verdict = %s", report.Verdict)
	}
}

func TestEngine_Verify_BuildErrorAborts(t *testing.T) {
	unit := &stubRunner{name: "unit", kind: KindUnit, result: Passed()}
	builder := &stubBuilder{err: &artifact.BuildError{Err: errors.New("exit status 1")}}

	eng := New(WithBuilder(builder), WithRunner(unit))

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err == nil {
		t.Fatal("expected build error")
	}
	var buildErr *artifact.BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("error %v does not wrap *artifact.BuildError", err)
	}
	if report != nil {
		t.Errorf("no report expected on build failure, got %+v", report)
	}
	if unit.ranTimes() != 0 {
		t.Errorf("stages must not run without an artifact, ran %d times", unit.ranTimes())
	}
}

func TestEngine_Verify_PanicBecomesFailure(t *testing.T) {
	unit := &stubRunner{name: "unit", kind: KindUnit, required: true, panics: true}
	system := &stubRunner{name: "system", kind: KindSystem, result: Passed()}

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(unit), WithRunner(system),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if report.Verdict != VerdictFailed {
		t.Fatalf("verdict = %s, want %s", report.Verdict, VerdictFailed)
	}
	if report.Stages[0].Status != StatusFailed || !strings.Contains(report.Stages[0].Reason, "boom") {
		t.Errorf("panic not converted to failure: %+v", report.Stages[0])
	}
	if system.ranTimes() != 1 {
		t.Errorf("system stage must still run after a panic")
	}
}

func TestEngine_Verify_SavesReport(t *testing.T) {
	store := &stubStore{}
	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithStore(store),
		WithRunner(&stubRunner{name: "unit", kind: KindUnit, result: Passed()}),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].ID != report.ID {
		t.Errorf("report not persisted: %+v", store.saved)
	}
}

func TestEngine_Verify_StoreErrorReturnsReport(t *testing.T) {
	store := &stubStore{err: errors.New("disk full")}
	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithStore(store),
	)

	report, err := eng.Verify(context.Background(), artifact.Source{Root: "."})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if report == nil || report.Verdict != VerdictPassed {
		t.Errorf("completed report must survive a persistence error: %+v", report)
	}
}

func TestEngine_Verify_CancelledContextSkipsStages(t *testing.T) {
	unit := &stubRunner{name: "unit", kind: KindUnit, required: true, result: Passed()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(
		WithBuilder(&stubBuilder{art: testArtifact()}),
		WithRunner(unit),
	)

	report, err := eng.Verify(ctx, artifact.Source{Root: "."})
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if unit.ranTimes() != 0 {
		t.Errorf("runner must not execute under a cancelled context")
	}
	if report.Stages[0].Status != StatusSkipped {
		t.Errorf("cancelled stage status = %s, want %s", report.Stages[0].Status, StatusSkipped)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		stages   []StageResult
		verdict  Verdict
		warnings int
	}{
		{
			name:    "empty run passes vacuously",
			verdict: VerdictPassed,
		},
		{
			name: "all passed",
			stages: []StageResult{
				{Stage: "unit", Status: StatusPassed, Required: true},
				{Stage: "system", Status: StatusPassed},
			},
			verdict: VerdictPassed,
		},
		{
			name: "optional failure still fails",
			stages: []StageResult{
				{Stage: "unit", Status: StatusPassed, Required: true},
				{Stage: "system", Status: StatusFailed, Reason: "port conflict"},
			},
			verdict: VerdictFailed,
		},
		{
			name: "optional skip warns",
			stages: []StageResult{
				{Stage: "unit", Status: StatusPassed, Required: true},
				{Stage: "system", Status: StatusSkipped, Reason: "runtime unreachable"},
			},
			verdict:  VerdictPassed,
			warnings: 1,
		},
		{
			name: "required skip fails",
			stages: []StageResult{
				{Stage: "unit", Status: StatusSkipped, Required: true, Reason: "no cases"},
			},
			verdict: VerdictFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, warnings := Aggregate(tt.stages)
			if verdict != tt.verdict {
				t.Errorf("verdict = %s, want %s", verdict, tt.verdict)
			}
			if len(warnings) != tt.warnings {
				t.Errorf("warnings = %v, want %d", warnings, tt.warnings)
			}
		})
	}
}

func TestWriteSummary(t *testing.T) {
	report := &RunReport{
		ID:       "run-1",
		Artifact: testArtifact(),
		Stages: []StageResult{
			{Stage: "unit", Kind: KindUnit, Status: StatusPassed, Required: true, Cases: []CaseResult{
				{Name: "power", Status: CasePassed},
				{Name: "distance", Status: CaseFailed, Message: "got 4.9, want 5"},
			}},
			{Stage: "system", Kind: KindSystem, Status: StatusSkipped, Reason: "runtime unreachable"},
		},
		Verdict:  VerdictFailed,
		Warnings: []string{"stage system skipped: runtime unreachable"},
		Started:  time.Now(),
		Finished: time.Now(),
	}

	var buf bytes.Buffer
	WriteSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"run run-1: failed",
		"drydock/test:1",
		"[unit] unit: passed",
		"distance: got 4.9, want 5",
		"[system] system: skipped (runtime unreachable)",
		"warning: stage system skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
