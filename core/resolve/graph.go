package resolve

import (
	"cmp"
	"slices"

	"github.com/huangsam/impacted/schema"
)

// graph is a file-level import graph. Node IDs are slash separated absolute paths.
type graph struct {
	imports   map[string][]string // file -> files it imports
	importers map[string][]string // file -> files importing it, restricted to nodes
	nodes     map[string]struct{}
}

// buildGraph keeps the files reachable from any root and wires the reverse edges.
func buildGraph(edges map[string][]string, roots []string) *graph {
	g := &graph{
		imports:   edges,
		importers: make(map[string][]string),
		nodes:     make(map[string]struct{}),
	}

	queue := slices.Clone(roots)
	for _, r := range roots {
		g.nodes[r] = struct{}{}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range edges[cur] {
			g.importers[dep] = append(g.importers[dep], cur)
			if _, ok := g.nodes[dep]; ok {
				continue
			}
			g.nodes[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	for k := range g.importers {
		slices.Sort(g.importers[k])
	}
	return g
}

// related runs a multi-source BFS over reverse edges from every changed file
// and returns the test files reached, each with its nearest changed file.
func (g *graph) related(changed []string, isTest func(string) bool) []schema.RelatedTest {
	parent := make(map[string]string)
	origin := make(map[string]string)
	depth := make(map[string]int)

	var queue []string
	for _, c := range changed {
		if _, ok := g.nodes[c]; !ok {
			continue
		}
		if _, seen := depth[c]; seen {
			continue
		}
		depth[c] = 0
		origin[c] = c
		queue = append(queue, c)
	}

	var tests []schema.RelatedTest
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if isTest(cur) {
			tests = append(tests, schema.RelatedTest{
				Path:  cur,
				Via:   origin[cur],
				Chain: chainFrom(cur, parent),
				Depth: depth[cur],
			})
		}

		for _, imp := range g.importers[cur] {
			if _, seen := depth[imp]; seen {
				continue
			}
			depth[imp] = depth[cur] + 1
			origin[imp] = origin[cur]
			parent[imp] = cur
			queue = append(queue, imp)
		}
	}

	slices.SortFunc(tests, func(a, b schema.RelatedTest) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return tests
}

// chainFrom walks parent links from a test down to the changed file it came from.
func chainFrom(node string, parent map[string]string) []string {
	chain := []string{node}
	for {
		next, ok := parent[node]
		if !ok {
			return chain
		}
		chain = append(chain, next)
		node = next
	}
}
