package engine

import (
	"context"

	"github.com/tjfontaine/drydock/internal/artifact"
)

// Runner executes one verification stage against a built artifact. Run must
// return a terminal StageResult and never panic across the boundary; the
// engine still recovers panics and converts them to failures as a backstop.
type Runner interface {
	// Name identifies the stage in reports and logs.
	Name() string
	// Kind classifies the stage for aggregation.
	Kind() StageKind
	// Required reports whether a skip of this stage blocks the verdict.
	// Failure always blocks regardless of this flag.
	Required() bool
	// Run executes the stage. The result's Stage, Kind, Required and
	// Duration fields are filled in by the engine.
	Run(ctx context.Context, art *artifact.Artifact) StageResult
}

// Store persists completed run reports. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveRun(ctx context.Context, report *RunReport) error
}
