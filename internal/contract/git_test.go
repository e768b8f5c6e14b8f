package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initTestRepo creates a repository with two commits and returns its root.
// The second commit touches src/b.ts only.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	git("init", "-q")
	write("src/a.ts", "export const a = 1\n")
	write("src/b.ts", "export const b = 1\n")
	git("add", ".")
	git("commit", "-q", "-m", "initial")
	git("tag", "base")
	write("src/b.ts", "export const b = 2\n")
	git("commit", "-q", "-am", "change b")
	return dir
}

// TestMockGitClient_Run ensures the mock correctly records and returns
// expected values when its Run method is called.
func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()

	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	// Run flattens (ctx, repoPath, args...) into one argument list.
	mockClient.
		On("Run", ctx, "/path/to/repo", "log", "-1", "--oneline").
		Return(expectedOutput, expectedError).
		Once()

	actualOutput, actualError := mockClient.Run(ctx, "/path/to/repo", "log", "-1", "--oneline")

	assert.Equal(t, expectedOutput, actualOutput)
	assert.Equal(t, expectedError, actualError)
	mockClient.AssertExpectations(t)
}

// TestNewLocalGitClient tests the constructor for LocalGitClient.
func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client)
	assert.IsType(t, &LocalGitClient{}, client)
}

// TestLocalGitClient_Run tests the Run method with failing scenarios.
func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repoRoot := initTestRepo(t)

	tests := []struct {
		name     string
		repoPath string
		args     []string
	}{
		{name: "invalid repo path", repoPath: "/nonexistent/path", args: []string{"status"}},
		{name: "invalid git command", repoPath: repoRoot, args: []string{"invalid-command"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Run(ctx, tt.repoPath, tt.args...)
			assert.Error(t, err)
		})
	}
}

// TestLocalGitClient_GetRepoRoot tests the GetRepoRoot method.
func TestLocalGitClient_GetRepoRoot(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repoRoot := initTestRepo(t)

	root, err := client.GetRepoRoot(ctx, filepath.Join(repoRoot, "src"))
	require.NoError(t, err)

	// Compare resolved paths, temp dirs may sit behind symlinks
	want, err := filepath.EvalSymlinks(repoRoot)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = client.GetRepoRoot(ctx, t.TempDir())
	assert.Error(t, err, "a plain directory is not a repository")
}

// TestLocalGitClient_GetChangedFilesBetweenRefs tests the ref range diff.
func TestLocalGitClient_GetChangedFilesBetweenRefs(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repoRoot := initTestRepo(t)

	files, err := client.GetChangedFilesBetweenRefs(ctx, repoRoot, "base", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/b.ts"}, files)

	files, err = client.GetChangedFilesBetweenRefs(ctx, repoRoot, "HEAD", "HEAD")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = client.GetChangedFilesBetweenRefs(ctx, repoRoot, "no-such-ref", "HEAD")
	assert.Error(t, err)
}
