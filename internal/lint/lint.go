// Package lint provides a rule-based static checking framework for source
// trees. Rules are composable; a named rule set selects which rules run and
// how severe their findings are. The checker is strictly read-only.
package lint

import "fmt"

// Severity represents the severity level of a violation.
type Severity int

const (
	// SeverityError indicates a blocking issue that fails the static stage.
	SeverityError Severity = iota
	// SeverityWarning indicates a non-blocking issue, reported but tolerated.
	SeverityWarning
	// SeverityInfo indicates a style suggestion.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Blocking reports whether a finding at this severity fails the stage.
func (s Severity) Blocking() bool {
	return s == SeverityError
}

// Violation is a single finding in a source file.
type Violation struct {
	// File is the path of the offending file, relative to the checked root.
	File string `json:"file"`
	// Line is the 1-based line number.
	Line int `json:"line"`
	// Rule is the identifier of the rule that produced this violation.
	Rule string `json:"rule"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Severity indicates whether the finding blocks.
	Severity Severity `json:"severity"`
}

// String returns a formatted representation of the violation.
func (v Violation) String() string {
	return fmt.Sprintf("%s:%d [%s] %s", v.File, v.Line, v.Rule, v.Message)
}

// Rule is one static check applied line-by-line to a source file.
type Rule interface {
	// Name returns a unique kebab-case identifier like "max-line-length".
	Name() string
	// Description explains what the rule checks.
	Description() string
	// Severity is the level assigned to this rule's violations.
	Severity() Severity
	// Check examines one file's lines and returns any violations found.
	Check(file string, lines []string) []Violation
}

// RuleSet names a fixed selection of rules. Sets are enumerated rather than
// free-form so configuration stays validatable.
type RuleSet string

const (
	// RuleSetFormatting checks whitespace hygiene only; all findings block.
	RuleSetFormatting RuleSet = "formatting"
	// RuleSetStandard adds line-length checking as a warning.
	RuleSetStandard RuleSet = "standard"
	// RuleSetStrict is RuleSetStandard with line length promoted to blocking.
	RuleSetStrict RuleSet = "strict"
)

// Valid reports whether the rule set is one of the enumerated names.
func (rs RuleSet) Valid() bool {
	switch rs {
	case RuleSetFormatting, RuleSetStandard, RuleSetStrict:
		return true
	}
	return false
}

// Config selects the rules to run and their parameters.
type Config struct {
	// RuleSet picks the enumerated rule selection. Defaults to standard.
	RuleSet RuleSet
	// MaxLineLength is the width enforced by the line-length rule.
	// Defaults to 120.
	MaxLineLength int
	// Extensions limits which files are checked. Defaults to .go files.
	Extensions []string
}

// Rules materializes the configured rule set.
func (c Config) Rules() ([]Rule, error) {
	set := c.RuleSet
	if set == "" {
		set = RuleSetStandard
	}
	if !set.Valid() {
		return nil, fmt.Errorf("unknown rule set %q", set)
	}

	width := c.MaxLineLength
	if width <= 0 {
		width = 120
	}

	rules := []Rule{
		&TrailingWhitespace{},
		&FinalNewline{},
	}
	switch set {
	case RuleSetStandard:
		rules = append(rules, &MaxLineLength{Width: width, Level: SeverityWarning})
	case RuleSetStrict:
		rules = append(rules, &MaxLineLength{Width: width, Level: SeverityError})
	}
	return rules, nil
}
