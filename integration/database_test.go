//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestImpactedWithMySQL tests the impacted CLI with a MySQL backend.
func TestImpactedWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "impacted",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/impacted?parseTime=true", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestImpactedWithPostgres tests the impacted CLI with a PostgreSQL backend.
func TestImpactedWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend drives every storage command against one backend.
func exerciseBackend(t *testing.T, backend, connStr string) {
	root := writeFixture(t)

	t.Setenv("IMPACTED_CACHE_BACKEND", backend)
	t.Setenv("IMPACTED_CACHE_DB_CONNECT", connStr)
	t.Setenv("IMPACTED_HISTORY_BACKEND", backend)
	t.Setenv("IMPACTED_HISTORY_DB_CONNECT", connStr)

	// Schema first, on an empty database
	out, err := runImpacted(t, root, "", "history", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully migrated from version 0 to version 3")

	_, err = runImpacted(t, root, "", "cache", "clear")
	require.NoError(t, err)

	// Two runs: the second is served from the parse cache
	for range 2 {
		out, err = runImpacted(t, root, "src/lib/math.ts\n", "run", "src/index.ts", "--git-root", root, "--output", "json")
		require.NoError(t, err)
		assert.Contains(t, out, "math.spec.ts")
	}

	out, err = runImpacted(t, root, "", "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, backend)

	out, err = runImpacted(t, root, "", "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	out, err = runImpacted(t, root, "", "history", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 runs")
	_, err = os.Stat(exportBase + ".runs.parquet")
	require.NoError(t, err)
	_, err = os.Stat(exportBase + ".run_tests.parquet")
	require.NoError(t, err)

	_, err = runImpacted(t, root, "", "history", "clear")
	require.NoError(t, err)
	_, err = runImpacted(t, root, "", "cache", "clear")
	require.NoError(t, err)
}
