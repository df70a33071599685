package stage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tjfontaine/drydock/internal/artifact"
	"github.com/tjfontaine/drydock/internal/engine"
	"github.com/tjfontaine/drydock/internal/mathapi/compute"
)

// UnitCase is one isolated check of a pure function. The function returns
// nil on success and a descriptive error on failure.
type UnitCase struct {
	Name string
	Fn   func() error
}

// Unit executes unit cases in isolation: a panic in one case errors that
// case only and the rest still run.
type Unit struct {
	cases []UnitCase
}

// NewUnit creates the unit stage over the given cases.
func NewUnit(cases []UnitCase) *Unit {
	return &Unit{cases: cases}
}

var _ engine.Runner = (*Unit)(nil)

func (u *Unit) Name() string           { return "unit-tests" }
func (u *Unit) Kind() engine.StageKind { return engine.KindUnit }
func (u *Unit) Required() bool         { return true }

func (u *Unit) Run(ctx context.Context, art *artifact.Artifact) engine.StageResult {
	if len(u.cases) == 0 {
		return engine.Skippedf("no cases discovered")
	}

	cases := make([]engine.CaseResult, 0, len(u.cases))
	for _, c := range u.cases {
		if err := ctx.Err(); err != nil {
			cases = append(cases, engine.CaseResult{
				Name: c.Name, Status: engine.CaseSkipped, Message: err.Error(),
			})
			continue
		}
		cases = append(cases, runUnitCase(c))
	}
	return assess(cases)
}

func runUnitCase(c UnitCase) (result engine.CaseResult) {
	start := time.Now()
	result.Name = c.Name
	defer func() {
		if rec := recover(); rec != nil {
			result.Status = engine.CaseErrored
			result.Message = fmt.Sprintf("panic: %v", rec)
		}
		result.Duration = time.Since(start)
	}()

	if err := c.Fn(); err != nil {
		result.Status = engine.CaseFailed
		result.Message = err.Error()
		return result
	}
	result.Status = engine.CasePassed
	return result
}

func expect(name string, got, want float64) error {
	if math.Abs(got-want) > resultTolerance {
		return fmt.Errorf("%s = %g, want %g", name, got, want)
	}
	return nil
}

// DefaultUnitCases returns the standard unit suite for the math service's
// computation kernel.
func DefaultUnitCases() []UnitCase {
	return []UnitCase{
		{Name: "power integer exponent", Fn: func() error {
			return expect("Power(2, 3)", compute.Power(2, 3), 8)
		}},
		{Name: "power zero exponent", Fn: func() error {
			return expect("Power(7, 0)", compute.Power(7, 0), 1)
		}},
		{Name: "power fractional exponent", Fn: func() error {
			return expect("Power(9, 0.5)", compute.Power(9, 0.5), 3)
		}},
		{Name: "power negative base odd exponent", Fn: func() error {
			return expect("Power(-2, 3)", compute.Power(-2, 3), -8)
		}},
		{Name: "distance pythagorean triple", Fn: func() error {
			return expect("EuclideanDistance(3, 4)", compute.EuclideanDistance(3, 4), 5)
		}},
		{Name: "distance origin", Fn: func() error {
			return expect("EuclideanDistance(0, 0)", compute.EuclideanDistance(0, 0), 0)
		}},
		{Name: "distance sign invariant", Fn: func() error {
			return expect("EuclideanDistance(-3, -4)", compute.EuclideanDistance(-3, -4), 5)
		}},
		{Name: "add", Fn: func() error {
			return expect("Add(10, 20)", compute.Add(10, 20), 30)
		}},
		{Name: "add negative", Fn: func() error {
			return expect("Add(-5, 2.5)", compute.Add(-5, 2.5), -2.5)
		}},
	}
}
