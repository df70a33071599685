package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/drydock/internal/artifact"
)

const timePrecision = time.Millisecond

// Engine runs the verification pipeline: one build, then the registered
// stages, then aggregation. The build is the only step whose error aborts a
// run; stage failures are recorded and the remaining stages still execute so
// a single run surfaces every actionable result.
type Engine struct {
	builder artifact.Builder
	store   Store
	logger  *slog.Logger

	static      []Runner
	unit        []Runner
	integration []Runner
	system      []Runner
}

// New creates an Engine. Stages are registered through options; an engine
// with no stages produces a vacuously passing run.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.builder == nil {
		e.builder = artifact.NewDockerBuilder(nil, e.logger)
	}
	return e
}

// Verify executes one full pipeline run against the source tree. The
// returned report is non-nil whenever the build succeeded, even if the
// verdict is failed; only a build error (or persistence error) is returned
// as an error.
func (e *Engine) Verify(ctx context.Context, src artifact.Source) (*RunReport, error) {
	report := &RunReport{
		ID:      uuid.New().String(),
		Started: time.Now(),
	}
	logger := e.logger.With(slog.String("run_id", report.ID))

	art, err := e.builder.Build(ctx, src)
	if err != nil {
		logger.Error("build failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("build artifact: %w", err)
	}
	report.Artifact = art
	logger.Info("artifact ready",
		slog.String("digest", art.ID.String()),
		slog.String("tag", art.Tag))

	// Static and unit stages have no shared state and run concurrently.
	// Integration and system stages follow sequentially; the system stage
	// binds a host port so it never overlaps another stage.
	fanout := make([]StageResult, len(e.static)+len(e.unit))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range append(append([]Runner{}, e.static...), e.unit...) {
		g.Go(func() error {
			fanout[i] = e.runStage(gctx, logger, r, art)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Stages = append(report.Stages, fanout...)

	for _, r := range e.integration {
		report.Stages = append(report.Stages, e.runStage(ctx, logger, r, art))
	}
	for _, r := range e.system {
		report.Stages = append(report.Stages, e.runStage(ctx, logger, r, art))
	}

	report.Verdict, report.Warnings = Aggregate(report.Stages)
	report.Finished = time.Now()

	logger.Info("run complete",
		slog.String("verdict", string(report.Verdict)),
		slog.Int("stages", len(report.Stages)),
		slog.Duration("elapsed", report.Finished.Sub(report.Started)))

	if e.store != nil {
		if err := e.store.SaveRun(ctx, report); err != nil {
			return report, fmt.Errorf("save run %s: %w", report.ID, err)
		}
	}
	return report, nil
}

// runStage executes one runner and stamps the engine-owned result fields. A
// cancelled context skips the stage; a panic inside the runner fails it.
func (e *Engine) runStage(ctx context.Context, logger *slog.Logger, r Runner, art *artifact.Artifact) (result StageResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = Failedf("stage panicked: %v", rec)
		}
		result.Stage = r.Name()
		result.Kind = r.Kind()
		result.Required = r.Required()
		result.Duration = time.Since(start)
		logger.Info("stage finished",
			slog.String("stage", result.Stage),
			slog.String("kind", string(result.Kind)),
			slog.String("status", string(result.Status)),
			slog.Duration("elapsed", result.Duration))
	}()

	if err := ctx.Err(); err != nil {
		return Skippedf("run cancelled: %v", err)
	}

	logger.Info("stage starting",
		slog.String("stage", r.Name()),
		slog.String("kind", string(r.Kind())))
	return r.Run(ctx, art)
}
