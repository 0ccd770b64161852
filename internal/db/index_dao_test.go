package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/mediaidx/internal/model"
)

func newSQLiteDAO(t *testing.T) *IndexDAO {
	t.Helper()
	dao, err := NewIndexDAO(DriverSQLite, filepath.Join(t.TempDir(), "index.db"), "media_archive_index")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dao.Close() })
	require.NoError(t, dao.EnsureSchema(context.Background()))
	return dao
}

func TestNewIndexDAORejectsUnknownDriver(t *testing.T) {
	_, err := NewIndexDAO("mysql", "dsn", "t")
	require.Error(t, err)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	dao := newSQLiteDAO(t)
	require.NoError(t, dao.EnsureSchema(context.Background()))
	n, err := dao.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestReplaceAllReplacesPreviousRows(t *testing.T) {
	ctx := context.Background()
	dao := newSQLiteDAO(t)

	first := []model.Pair{
		{Name: "Old", Path: "/Volumes/A/Media_Archive/Old"},
		{Name: "Movies", Path: "/Volumes/A/Media_Archive/Movies"},
	}
	written, err := dao.ReplaceAll(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	second := []model.Pair{
		{Name: "Movies", Path: "/Volumes/A/Media_Archive/Movies"},
		{Name: "Movies_DUPLICATE", Path: "/Volumes/B/Media_Archive/Movies"},
		{Name: "Shows", Path: "/Volumes/B/Media_Archive/Shows"},
	}
	_, err = dao.ReplaceAll(ctx, second)
	require.NoError(t, err)

	items, err := dao.Find(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []model.StoredItem{
		{Item: "Movies", FilesystemPath: "/Volumes/A/Media_Archive/Movies"},
		{Item: "Movies_DUPLICATE", FilesystemPath: "/Volumes/B/Media_Archive/Movies"},
		{Item: "Shows", FilesystemPath: "/Volumes/B/Media_Archive/Shows"},
	}, items)
}

func TestReplaceAllChunksLargeSnapshots(t *testing.T) {
	ctx := context.Background()
	dao := newSQLiteDAO(t)

	pairs := make([]model.Pair, 0, 2*insertChunkSize+17)
	for i := 0; i < cap(pairs); i++ {
		name := fmt.Sprintf("item-%04d", i)
		pairs = append(pairs, model.Pair{Name: name, Path: "/v/" + name})
	}
	written, err := dao.ReplaceAll(ctx, pairs)
	require.NoError(t, err)
	assert.Equal(t, len(pairs), written)

	n, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(pairs), n)
}

func TestReplaceAllWithEmptySnapshotClearsTable(t *testing.T) {
	ctx := context.Background()
	dao := newSQLiteDAO(t)
	_, err := dao.ReplaceAll(ctx, []model.Pair{{Name: "a", Path: "/a"}})
	require.NoError(t, err)

	_, err = dao.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	n, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestReplaceAllFailsWithoutTable(t *testing.T) {
	dao, err := NewIndexDAO(DriverSQLite, filepath.Join(t.TempDir(), "index.db"), "missing_table")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dao.Close() })

	_, err = dao.ReplaceAll(context.Background(), []model.Pair{{Name: "a", Path: "/a"}})
	require.Error(t, err)
}

func TestFindFiltersAndLimits(t *testing.T) {
	ctx := context.Background()
	dao := newSQLiteDAO(t)
	_, err := dao.ReplaceAll(ctx, []model.Pair{
		{Name: "Star Wars", Path: "/A/Star Wars"},
		{Name: "Movies", Path: "/A/Movies"},
		{Name: "star_trek", Path: "/B/star_trek"},
		{Name: "It's, complicated", Path: "/B/It's, complicated"},
	})
	require.NoError(t, err)

	items, err := dao.Find(ctx, "star", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Star Wars", items[0].Item)
	assert.Equal(t, "star_trek", items[1].Item)

	items, err = dao.Find(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "It's, complicated", items[0].Item)

	items, err = dao.Find(ctx, "nothing-matches", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
