package stage

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
)

// System runs the case table against a real instance of the built
// artifact. An unreachable runtime or an instance that never becomes
// healthy skips the stage; a port conflict fails it, since that is a local
// fault the developer can fix. The instance is always torn down, whatever
// the outcome.
type System struct {
	launcher Launcher
	probe    Probe
	cases    []HTTPCase
	required bool
	logger   *slog.Logger
}

// NewSystem creates the system stage. Nil cases default to the standard
// table.
func NewSystem(launcher Launcher, probe Probe, cases []HTTPCase, logger *slog.Logger) *System {
	if cases == nil {
		cases = DefaultHTTPCases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{
		launcher: launcher,
		probe:    probe,
		cases:    cases,
		logger:   logger,
	}
}

var _ engine.Runner = (*System)(nil)

func (s *System) Name() string           { return "system-tests" }
func (s *System) Kind() engine.StageKind { return engine.KindSystem }
func (s *System) Required() bool         { return s.required }

// SetRequired makes a skip of this stage block the verdict.
func (s *System) SetRequired(required bool) { s.required = required }

func (s *System) Run(ctx context.Context, art *artifact.Artifact) engine.StageResult {
	instance, err := s.launcher.Launch(ctx, art)
	if err != nil {
		var conflict *PortConflictError
		if errors.As(err, &conflict) {
			return engine.Failedf("%v", conflict)
		}
		return s.skipAll("launch instance: %v", err)
	}
	// Teardown runs regardless of probe or case outcome, on a context that
	// survives run cancellation so the instance cannot leak.
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := instance.Stop(stopCtx); err != nil {
			s.logger.Error("instance teardown failed", slog.String("error", err.Error()))
		}
	}()

	if err := s.probe.Wait(ctx, instance.BaseURL()+"/healthz"); err != nil {
		return s.skipAll("instance never became healthy: %v", err)
	}

	results := RunHTTPCases(ctx, &http.Client{Timeout: 10 * time.Second}, instance.BaseURL(), s.cases)
	return assess(results)
}

// skipAll skips the stage with every configured case individually marked
// Skipped, so reports never collapse an unreachable instance into a bare
// stage-level note.
func (s *System) skipAll(format string, args ...any) engine.StageResult {
	result := engine.Skippedf(format, args...)
	result.Cases = make([]engine.CaseResult, 0, len(s.cases))
	for _, c := range s.cases {
		result.Cases = append(result.Cases, engine.CaseResult{
			Name:    c.Name,
			Status:  engine.CaseSkipped,
			Message: "server not reachable",
		})
	}
	return result
}
