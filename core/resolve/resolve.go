// Package resolve finds the test files of a JavaScript or TypeScript project
// that depend on a set of changed files.
package resolve

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/huangsam/impacted/internal/contract"
	"github.com/huangsam/impacted/schema"
	"golang.org/x/sync/errgroup"
)

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
}

// GraphResolver builds an import graph under the search dir and walks it
// backwards from the changed files.
type GraphResolver struct {
	cache  *importCache
	logger contract.Logger
}

var _ contract.Resolver = &GraphResolver{} // Compile-time check

// NewGraphResolver creates a resolver. The store may be nil to disable
// persistent caching; logger may be nil to discard debug output.
func NewGraphResolver(store contract.CacheStore, logger contract.Logger) *GraphResolver {
	return &GraphResolver{cache: newImportCache(store), logger: logger}
}

// Resolve implements the Resolver interface.
func (r *GraphResolver) Resolve(ctx context.Context, entryPoint, searchDir string, changeSet schema.ChangeSet, cfg *contract.Config) (*schema.Resolution, error) {
	if info, err := os.Stat(searchDir); err != nil {
		return nil, fmt.Errorf("search dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("search dir %s is not a directory", searchDir)
	}
	if info, err := os.Stat(entryPoint); err != nil {
		return nil, fmt.Errorf("entry point: %w", err)
	} else if info.IsDir() {
		return nil, fmt.Errorf("entry point %s is a directory", entryPoint)
	}

	excludes, patterns, workers := settings(cfg)

	absSearch, err := filepath.Abs(searchDir)
	if err != nil {
		return nil, err
	}
	absEntry, err := filepath.Abs(entryPoint)
	if err != nil {
		return nil, err
	}

	files, err := scanSources(ctx, absSearch, excludes)
	if err != nil {
		return nil, err
	}
	entry := filepath.ToSlash(absEntry)
	if !slices.Contains(files, entry) {
		files = append(files, entry)
	}

	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f] = struct{}{}
	}

	specs, err := r.parseAll(ctx, files, workers)
	if err != nil {
		return nil, err
	}

	root := filepath.ToSlash(absSearch)
	isTest := func(p string) bool {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		return contract.MatchesAny(rel, patterns)
	}

	edges := make(map[string][]string, len(files))
	roots := []string{entry}
	for i, f := range files {
		for _, spec := range specs[i] {
			if dep, ok := resolveSpecifier(f, spec, known, contract.SourceExtensions); ok && dep != f {
				edges[f] = append(edges[f], dep)
			}
		}
		if f != entry && isTest(f) {
			roots = append(roots, f)
		}
	}

	g := buildGraph(edges, roots)
	tests := g.related(changeSet.Sorted(), isTest)
	r.debug("resolved import graph", "files", len(files), "nodes", len(g.nodes), "tests", len(tests))

	return &schema.Resolution{
		EntryPoint:   entryPoint,
		SearchDir:    searchDir,
		FilesScanned: len(files),
		Tests:        tests,
	}, nil
}

// settings reads the resolver-relevant values from cfg, tolerating nil.
func settings(cfg *contract.Config) (excludes, patterns []string, workers int) {
	patterns = contract.DefaultTestPatterns
	workers = contract.DefaultWorkers
	if cfg == nil {
		return nil, patterns, workers
	}
	if len(cfg.TestPatterns) > 0 {
		patterns = cfg.TestPatterns
	}
	if cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return cfg.Excludes, patterns, workers
}

// scanSources lists source files under the absolute dir root as sorted,
// slash separated absolute paths.
func scanSources(ctx context.Context, root string, excludes []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := skipDirs[d.Name()]; skip || contract.ShouldIgnore(rel+"/", excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !slices.Contains(contract.SourceExtensions, filepath.Ext(p)) {
			return nil
		}
		if contract.ShouldIgnore(rel, excludes) {
			return nil
		}
		files = append(files, filepath.ToSlash(p))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

// parseAll extracts import specifiers for every file on a bounded worker pool.
// The result is indexed like files.
func (r *GraphResolver) parseAll(ctx context.Context, files []string, workers int) ([][]string, error) {
	out := make([][]string, len(files))
	var mu sync.Mutex
	var cacheErrs int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			content, err := os.ReadFile(filepath.FromSlash(f))
			if err != nil {
				return fmt.Errorf("reading %s: %w", f, err)
			}
			key := cacheKey(f, content)
			if specs, ok := r.cache.get(key); ok {
				out[i] = specs
				return nil
			}
			specs, err := ParseImports(gctx, f, content)
			if err != nil {
				return err
			}
			out[i] = specs
			if err := r.cache.put(key, specs); err != nil {
				mu.Lock()
				cacheErrs++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if cacheErrs > 0 {
		r.debug("parse cache writes failed", "count", cacheErrs)
	}
	return out, nil
}

func (r *GraphResolver) debug(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, kv...)
	}
}
