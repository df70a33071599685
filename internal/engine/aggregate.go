package engine

import (
	"fmt"
	"io"
)

// Aggregate folds stage results into a composite verdict plus non-blocking
// warnings.
//
// Failure and skip are not symmetric: any failed stage fails the run, a
// skipped required stage fails the run, but a skipped optional stage only
// produces a warning. An empty stage list passes vacuously.
func Aggregate(stages []StageResult) (Verdict, []string) {
	verdict := VerdictPassed
	var warnings []string
	for _, s := range stages {
		switch s.Status {
		case StatusFailed:
			verdict = VerdictFailed
		case StatusSkipped:
			if s.Required {
				verdict = VerdictFailed
			} else {
				warnings = append(warnings, fmt.Sprintf("stage %s skipped: %s", s.Stage, s.Reason))
			}
		}
	}
	return verdict, warnings
}

// WriteSummary renders a human-readable run report. Every stage appears with
// its status, reason and per-case breakdown; nothing is collapsed into a
// bare pass/fail.
func WriteSummary(w io.Writer, report *RunReport) {
	fmt.Fprintf(w, "run %s: %s (%s)\n", report.ID, report.Verdict, report.Finished.Sub(report.Started).Round(timePrecision))
	if report.Artifact != nil {
		fmt.Fprintf(w, "  artifact %s (%s)\n", report.Artifact.Ref(), report.Artifact.ID)
	}
	for _, s := range report.Stages {
		fmt.Fprintf(w, "  [%s] %s: %s", s.Kind, s.Stage, s.Status)
		if s.Reason != "" {
			fmt.Fprintf(w, " (%s)", s.Reason)
		}
		fmt.Fprintf(w, " %s\n", s.Duration.Round(timePrecision))
		for _, c := range s.Cases {
			fmt.Fprintf(w, "    %-8s %s", c.Status, c.Name)
			if c.Message != "" {
				fmt.Fprintf(w, ": %s", c.Message)
			}
			fmt.Fprintln(w)
		}
	}
	for _, warn := range report.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
