package lint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Checker applies a set of rules to every matching file under a root.
type Checker struct {
	rules      []Rule
	extensions map[string]bool
}

// NewChecker builds a Checker from config.
func NewChecker(cfg Config) (*Checker, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".go"}
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[e] = true
	}

	return &Checker{rules: rules, extensions: extSet}, nil
}

// Rules returns the materialized rules, for reporting.
func (c *Checker) Rules() []Rule {
	return c.rules
}

// Check walks the source tree and returns all violations, sorted by file and
// line. The tree is never modified.
func (c *Checker) Check(root string) ([]Violation, error) {
	var violations []Violation

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.extensions[filepath.Ext(path)] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		lines := strings.Split(string(data), "\n")
		for _, rule := range c.rules {
			violations = append(violations, rule.Check(rel, lines)...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Rule < violations[j].Rule
	})
	return violations, nil
}

// Blocking filters violations down to those from blocking rules.
func Blocking(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity.Blocking() {
			out = append(out, v)
		}
	}
	return out
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	switch name {
	case "vendor", "node_modules", "testdata":
		return true
	}
	return false
}
