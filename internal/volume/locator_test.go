package volume

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/mediaidx/internal/model"
)

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func TestLocateFindsArchiveRootsAtDepthTwo(t *testing.T) {
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "DiskA", "Media_Archive"),
		filepath.Join(root, "DiskB", "Media_Archive"),
		filepath.Join(root, "DiskC", "Other"),
		filepath.Join(root, "DiskD", "nested", "Media_Archive"),
		filepath.Join(root, "Media_Archive"),
	)

	got, err := Locate(context.Background(), root, "Media_Archive")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"DiskA": filepath.Join(root, "DiskA", "Media_Archive"),
		"DiskB": filepath.Join(root, "DiskB", "Media_Archive"),
	}, got)
}

func TestLocateIgnoresFilesNamedLikeArchive(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, filepath.Join(root, "DiskA"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "DiskA", "Media_Archive"), []byte("x"), 0o644))

	got, err := Locate(context.Background(), root, "Media_Archive")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocateSkipsSymlinkedMounts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := t.TempDir()
	other := t.TempDir()
	mkdirs(t, filepath.Join(other, "Media_Archive"))
	require.NoError(t, os.Symlink(other, filepath.Join(root, "Linked")))

	got, err := Locate(context.Background(), root, "Media_Archive")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocateEmptyRoot(t *testing.T) {
	got, err := Locate(context.Background(), t.TempDir(), "Media_Archive")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLocateMissingRootIsDiscoveryError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Locate(context.Background(), missing, "Media_Archive")
	require.Error(t, err)

	var derr *DiscoveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, missing, derr.Root)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocateSkipsUnreadableMount(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	mkdirs(t,
		filepath.Join(root, "DiskA", "Media_Archive"),
		filepath.Join(root, "Locked", "Media_Archive"),
	)
	locked := filepath.Join(root, "Locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := Locate(context.Background(), root, "Media_Archive")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DiskA": filepath.Join(root, "DiskA", "Media_Archive")}, got)
}

func TestRecordsSortedByLabel(t *testing.T) {
	recs := Records(map[string]string{"b": "/v/b/M", "A": "/v/A/M", "a": "/v/a/M"})
	assert.Equal(t, []model.VolumeRecord{
		{Label: "A", RootPath: "/v/A/M"},
		{Label: "a", RootPath: "/v/a/M"},
		{Label: "b", RootPath: "/v/b/M"},
	}, recs)
}
