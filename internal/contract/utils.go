package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Relation label constants.
const (
	ChangedValue  = "Changed"  // The test file itself is in the change set
	DirectValue   = "Direct"   // The test imports a changed file
	IndirectValue = "Indirect" // The test reaches a changed file through other imports
)

// Color variables for console output.
var (
	ChangedColor  = color.New(color.FgRed, color.Bold) // ChangedColor represents a test that was edited.
	DirectColor   = color.New(color.FgYellow)          // DirectColor represents a one-hop dependency.
	IndirectColor = color.New(color.FgCyan)            // IndirectColor represents a transitive dependency.
)

// GetPlainLabel returns a plain text label describing how a test relates to
// the change set, based on the import depth. This is the core logic used for
// CSV, JSON, and table printing.
func GetPlainLabel(depth int) string {
	switch {
	case depth <= 0:
		return ChangedValue
	case depth == 1:
		return DirectValue
	default:
		return IndirectValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(depth int) string {
	text := GetPlainLabel(depth)

	switch text {
	case ChangedValue:
		return ChangedColor.Sprint(text)
	case DirectValue:
		return DirectColor.Sprint(text)
	default:
		return IndirectColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// A user can provide patterns like "vendor/", "node_modules/", "*.min.js".
func ShouldIgnore(path string, excludes []string) bool {
	return MatchesAny(path, excludes)
}

// MatchesAny returns true if the given path matches any of the patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' match a
// directory segment anywhere in the path. Patterns starting with '.' are
// treated as suffix (extension) matches. Anything else is a substring match.
func MatchesAny(path string, patterns []string) bool {
	for _, ex := range patterns {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			// Also try matching against the base filename (e.g. *.min.js)
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the parse cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".impacted_cache.db"
	}
	return filepath.Join(homeDir, ".impacted_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".impacted_history.db"
	}
	return filepath.Join(homeDir, ".impacted_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
