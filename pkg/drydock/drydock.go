// Package drydock provides the public API for embedding the verification
// pipeline. This is the stable API for external consumers.
package drydock

import (
	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
)

// Engine runs the verification pipeline: build once, verify everywhere.
// See internal/engine.Engine for full documentation.
type Engine = engine.Engine

// Option is a functional option for configuring an Engine.
type Option = engine.Option

// Source describes the tree to build and verify.
type Source = artifact.Source

// Artifact is the immutable build output shared by every stage.
type Artifact = artifact.Artifact

// Run results.
type (
	RunReport   = engine.RunReport
	StageResult = engine.StageResult
	CaseResult  = engine.CaseResult
	Verdict     = engine.Verdict
)

const (
	VerdictPassed = engine.VerdictPassed
	VerdictFailed = engine.VerdictFailed
)

// New creates an Engine with the given options.
// Example:
//
//	eng := drydock.New(
//	    drydock.WithRunner(stageRunner),
//	    drydock.WithStore(store),
//	)
var New = engine.New

// Configuration options
var (
	WithLogger  = engine.WithLogger
	WithBuilder = engine.WithBuilder
	WithStore   = engine.WithStore
	WithRunner  = engine.WithRunner
)

// WriteSummary renders a human-readable run report.
var WriteSummary = engine.WriteSummary
