package stage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
	"github.com/tjfontaine/drydock/internal/lint"
)

// Static runs source-level checks against the tree the artifact was built
// from. It inspects source, never the artifact, so it needs no running
// instance.
type Static struct {
	root    string
	checker *lint.Checker
	logger  *slog.Logger
}

// NewStatic creates the static check stage for the given source root.
func NewStatic(root string, cfg lint.Config, logger *slog.Logger) (*Static, error) {
	checker, err := lint.NewChecker(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure checker: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Static{root: root, checker: checker, logger: logger}, nil
}

var _ engine.Runner = (*Static)(nil)

func (s *Static) Name() string           { return "static-checks" }
func (s *Static) Kind() engine.StageKind { return engine.KindStatic }
func (s *Static) Required() bool         { return true }

// Run reports every violation as a case. Blocking violations fail the
// stage; advisory ones are carried in the case list without failing it.
func (s *Static) Run(ctx context.Context, art *artifact.Artifact) engine.StageResult {
	violations, err := s.checker.Check(s.root)
	if err != nil {
		return engine.Failedf("check %s: %v", s.root, err)
	}

	cases := make([]engine.CaseResult, 0, len(violations))
	blocking := 0
	for _, v := range violations {
		status := engine.CasePassed
		if v.Severity.Blocking() {
			status = engine.CaseFailed
			blocking++
		}
		cases = append(cases, engine.CaseResult{
			Name:    v.Rule,
			Status:  status,
			Message: v.String(),
		})
	}

	s.logger.Info("static checks complete",
		slog.Int("violations", len(violations)),
		slog.Int("blocking", blocking))

	if blocking > 0 {
		result := engine.Failedf("%d blocking violations", blocking)
		result.Cases = cases
		return result
	}
	return engine.Passed(cases...)
}
