package lint

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxLineLength flags lines wider than Width runes.
type MaxLineLength struct {
	Width int
	Level Severity
}

func (r *MaxLineLength) Name() string { return "max-line-length" }

func (r *MaxLineLength) Description() string {
	return fmt.Sprintf("lines must not exceed %d characters", r.Width)
}

func (r *MaxLineLength) Severity() Severity { return r.Level }

func (r *MaxLineLength) Check(file string, lines []string) []Violation {
	var out []Violation
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n > r.Width {
			out = append(out, Violation{
				File:     file,
				Line:     i + 1,
				Rule:     r.Name(),
				Message:  fmt.Sprintf("line is %d characters, limit is %d", n, r.Width),
				Severity: r.Level,
			})
		}
	}
	return out
}

// TrailingWhitespace flags lines ending in spaces or tabs.
type TrailingWhitespace struct{}

func (r *TrailingWhitespace) Name() string { return "trailing-whitespace" }

func (r *TrailingWhitespace) Description() string {
	return "lines must not end with spaces or tabs"
}

func (r *TrailingWhitespace) Severity() Severity { return SeverityError }

func (r *TrailingWhitespace) Check(file string, lines []string) []Violation {
	var out []Violation
	for i, line := range lines {
		if line != strings.TrimRight(line, " \t") {
			out = append(out, Violation{
				File:     file,
				Line:     i + 1,
				Rule:     r.Name(),
				Message:  "trailing whitespace",
				Severity: SeverityError,
			})
		}
	}
	return out
}

// FinalNewline flags files whose last line is missing a terminating newline.
// The checker hands us lines after splitting on newlines: a well-formed file
// yields a final empty element, so a non-empty last element means the newline
// was missing.
type FinalNewline struct{}

func (r *FinalNewline) Name() string { return "final-newline" }

func (r *FinalNewline) Description() string {
	return "files must end with a newline"
}

func (r *FinalNewline) Severity() Severity { return SeverityError }

func (r *FinalNewline) Check(file string, lines []string) []Violation {
	if len(lines) == 0 {
		return nil
	}
	if last := lines[len(lines)-1]; last != "" {
		return []Violation{{
			File:     file,
			Line:     len(lines),
			Rule:     r.Name(),
			Message:  "missing newline at end of file",
			Severity: SeverityError,
		}}
	}
	return nil
}
