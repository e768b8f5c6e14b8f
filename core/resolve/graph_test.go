package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Related(t *testing.T) {
	isTest := func(p string) bool { return strings.HasSuffix(p, ".test.ts") }

	t.Run("cycles terminate", func(t *testing.T) {
		edges := map[string][]string{
			"/entry.ts":  {"/a.ts"},
			"/a.ts":      {"/b.ts"},
			"/b.ts":      {"/a.ts"},
			"/x.test.ts": {"/b.ts"},
		}
		g := buildGraph(edges, []string{"/entry.ts", "/x.test.ts"})
		tests := g.related([]string{"/a.ts"}, isTest)
		require.Len(t, tests, 1)
		assert.Equal(t, "/x.test.ts", tests[0].Path)
		assert.Equal(t, []string{"/x.test.ts", "/b.ts", "/a.ts"}, tests[0].Chain)
		assert.Equal(t, 2, tests[0].Depth)
	})

	t.Run("files outside the graph are ignored", func(t *testing.T) {
		edges := map[string][]string{
			"/entry.ts":  {"/a.ts"},
			"/orphan.ts": {"/a.ts"},
		}
		g := buildGraph(edges, []string{"/entry.ts"})
		assert.NotContains(t, g.nodes, "/orphan.ts")
		assert.Empty(t, g.importers["/orphan.ts"])
		assert.Empty(t, g.related([]string{"/orphan.ts"}, isTest))
	})

	t.Run("duplicate changes count once", func(t *testing.T) {
		edges := map[string][]string{"/x.test.ts": {"/a.ts"}}
		g := buildGraph(edges, []string{"/x.test.ts"})
		tests := g.related([]string{"/a.ts", "/a.ts"}, isTest)
		assert.Len(t, tests, 1)
	})
}
