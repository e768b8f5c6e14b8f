package contract

import (
	"context"

	"github.com/huangsam/impacted/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	root, _ := ret.Get(0).(string)
	return root, ret.Error(1)
}

// GetChangedFilesBetweenRefs implements the GitClient interface.
func (m *MockGitClient) GetChangedFilesBetweenRefs(ctx context.Context, repoPath string, baseRef string, targetRef string) ([]string, error) {
	ret := m.Called(ctx, repoPath, baseRef, targetRef)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}

// MockResolver is a mock implementation of Resolver for testing.
type MockResolver struct {
	mock.Mock
}

var _ Resolver = &MockResolver{} // Compile-time check

// Resolve implements the Resolver interface.
func (m *MockResolver) Resolve(ctx context.Context, entryPoint, searchDir string, changeSet schema.ChangeSet, cfg *Config) (*schema.Resolution, error) {
	ret := m.Called(ctx, entryPoint, searchDir, changeSet, cfg)
	res, _ := ret.Get(0).(*schema.Resolution)
	return res, ret.Error(1)
}
