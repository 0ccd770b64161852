//go:build integration

package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/xxxsen/mediaidx/internal/model"
)

// checkTestcontainersAvailable reports whether a container provider can be reached.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping postgres integration test: testcontainers provider not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "archivist",
				"POSTGRES_PASSWORD": "archivist",
				"POSTGRES_DB":       "media",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://archivist:archivist@%s:%s/media?sslmode=disable", host, port.Port())
}

func TestPostgresReplaceAllAndFind(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	dao, err := NewIndexDAO(DriverPostgres, dsn, "media_archive_index")
	require.NoError(t, err)
	defer dao.Close()

	require.NoError(t, dao.Ping(ctx))
	require.NoError(t, dao.EnsureSchema(ctx))
	require.NoError(t, dao.EnsureSchema(ctx))

	_, err = dao.ReplaceAll(ctx, []model.Pair{{Name: "Stale", Path: "/old"}})
	require.NoError(t, err)

	written, err := dao.ReplaceAll(ctx, []model.Pair{
		{Name: "Movies", Path: "/Volumes/DiskA/Media_Archive/Movies"},
		{Name: "Movies_DUPLICATE", Path: "/Volumes/DiskB/Media_Archive/Movies"},
		{Name: "Shows", Path: "/Volumes/DiskB/Media_Archive/Shows"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	n, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	items, err := dao.Find(ctx, "movies", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Movies", items[0].Item)
	assert.Equal(t, "/Volumes/DiskB/Media_Archive/Movies", items[1].FilesystemPath)

	items, err = dao.Find(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
