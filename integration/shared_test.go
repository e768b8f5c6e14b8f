//go:build integration || database

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedImpactedPath holds the path to a shared impacted binary built once for all tests.
	sharedImpactedPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getImpactedBinary returns the path to the impacted binary, building it once if needed.
func getImpactedBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "impacted-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		impactedPath := filepath.Join(tempDir, "impacted")
		buildCmd := exec.Command("go", "build", "-o", impactedPath, "./cmd/impacted")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build impacted: %v\n%s", err, out))
		}

		sharedImpactedPath = impactedPath
	})

	return sharedImpactedPath
}

// fixtureFiles is a small TypeScript project.
//
//	src/index.ts -> src/app.ts -> src/lib/math.ts
//	src/app.test.ts -> src/app.ts
//	src/lib/math.spec.ts -> src/lib/math.ts
//	src/other.test.ts -> src/other.ts
var fixtureFiles = map[string]string{
	"src/index.ts":         "import { run } from './app';\nrun();\n",
	"src/app.ts":           "import { add } from './lib/math';\nexport const run = () => add(1, 2);\n",
	"src/lib/math.ts":      "export const add = (a: number, b: number) => a + b;\n",
	"src/app.test.ts":      "import { run } from './app';\ntest('run', () => expect(run()).toBe(3));\n",
	"src/lib/math.spec.ts": "import { add } from './math';\ntest('add', () => expect(add(1, 1)).toBe(2));\n",
	"src/other.ts":         "export const other = true;\n",
	"src/other.test.ts":    "import { other } from './other';\ntest('other', () => expect(other).toBe(true));\n",
}

// writeFixture lays out fixtureFiles under a new temp dir and returns it.
func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range fixtureFiles {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// runImpacted runs the binary in dir with stdin and returns stdout.
func runImpacted(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getImpactedBinary(), args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStderr: %s", cmd.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}
