package contract

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// IncludeFilter decides whether a raw input line belongs in the change set.
type IncludeFilter interface {
	Include(line string) (bool, error)
}

// FilterFunc adapts a plain function to IncludeFilter.
type FilterFunc func(line string) (bool, error)

// Include implements the IncludeFilter interface.
func (f FilterFunc) Include(line string) (bool, error) { return f(line) }

// DefaultExcludes are applied to every RuleFilter.
var DefaultExcludes = []string{"node_modules/"}

// RuleFilter is the configuration-driven IncludeFilter.
type RuleFilter struct {
	Extensions []string // Allowed suffixes, empty allows all
	Includes   []string // Globs a line must match, empty allows all
	Exclude    []string // ShouldIgnore patterns
}

var _ IncludeFilter = &RuleFilter{} // Compile-time check

// NewRuleFilter builds a RuleFilter with DefaultExcludes prepended to exclude.
func NewRuleFilter(extensions, include, exclude []string) *RuleFilter {
	return &RuleFilter{
		Extensions: extensions,
		Includes:   include,
		Exclude:    append(slices.Clone(DefaultExcludes), exclude...),
	}
}

// Include implements the IncludeFilter interface. Blank lines and lines with
// surrounding whitespace are rejected, since the line becomes the path as is.
func (f *RuleFilter) Include(line string) (bool, error) {
	path := strings.TrimSpace(line)
	if path == "" || path != line {
		return false, nil
	}
	if len(f.Extensions) > 0 && !hasAnySuffix(path, f.Extensions) {
		return false, nil
	}
	if ShouldIgnore(path, f.Exclude) {
		return false, nil
	}
	if len(f.Includes) == 0 {
		return true, nil
	}
	for _, pat := range f.Includes {
		ok, err := filepath.Match(pat, path)
		if err != nil {
			return false, fmt.Errorf("include pattern %q: %w", pat, err)
		}
		if ok {
			return true, nil
		}
		if ok, _ := filepath.Match(pat, filepath.Base(path)); ok {
			return true, nil
		}
	}
	return false, nil
}

// ValidatePatterns reports the first malformed glob in patterns.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if _, err := filepath.Match(pat, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", pat, err)
		}
	}
	return nil
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}
