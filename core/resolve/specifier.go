package resolve

import (
	"path"
	"strings"
)

// tsSiblings maps a JavaScript extension written in an import to the
// TypeScript sources that compile to it.
var tsSiblings = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// isRelative reports whether a specifier points into the project rather than a package.
func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// resolveSpecifier maps a relative specifier written in fromFile to a known file.
// Paths are slash separated. Bare package specifiers never resolve.
func resolveSpecifier(fromFile, spec string, known map[string]struct{}, extensions []string) (string, bool) {
	if !isRelative(spec) {
		return "", false
	}
	// Query strings and fragments are bundler conventions, not paths
	if i := strings.IndexAny(spec, "?#"); i >= 0 {
		spec = spec[:i]
	}
	base := path.Join(path.Dir(fromFile), spec)

	has := func(p string) bool {
		_, ok := known[p]
		return ok
	}

	if has(base) {
		return base, true
	}
	ext := path.Ext(base)
	for _, sib := range tsSiblings[ext] {
		if cand := strings.TrimSuffix(base, ext) + sib; has(cand) {
			return cand, true
		}
	}
	for _, e := range extensions {
		if has(base + e) {
			return base + e, true
		}
	}
	for _, e := range extensions {
		if cand := base + "/index" + e; has(cand) {
			return cand, true
		}
	}
	return "", false
}
