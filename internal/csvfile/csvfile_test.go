package csvfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/mediaidx/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	return model.NewSnapshot(map[string]model.IndexEntry{
		"Shows":            {ResolvedPath: "/Volumes/DiskB/Media_Archive/Shows"},
		"Movies":           {ResolvedPath: "/Volumes/DiskA/Media_Archive/Movies"},
		"Movies_DUPLICATE": {ResolvedPath: "/Volumes/DiskB/Media_Archive/Movies"},
		"Tom, Jerry":       {ResolvedPath: "/Volumes/DiskA/Media_Archive/Tom, Jerry"},
	})
}

func TestBytesLayout(t *testing.T) {
	data, err := Bytes(sampleSnapshot())
	require.NoError(t, err)
	want := "Directory,Filesystem_Path\n" +
		"Movies,/Volumes/DiskA/Media_Archive/Movies\n" +
		"Movies_DUPLICATE,/Volumes/DiskB/Media_Archive/Movies\n" +
		"Shows,/Volumes/DiskB/Media_Archive/Shows\n" +
		"\"Tom, Jerry\",\"/Volumes/DiskA/Media_Archive/Tom, Jerry\"\n"
	assert.Equal(t, want, string(data))
}

func TestEmptySnapshotWritesHeaderOnly(t *testing.T) {
	data, err := Bytes(model.NewSnapshot(nil))
	require.NoError(t, err)
	assert.Equal(t, "Directory,Filesystem_Path\n", string(data))
}

func TestWriteFileOverwritesAndIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "index.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale content that is much longer than the header\n"), 0o644))

	require.NoError(t, WriteFile(path, sampleSnapshot()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, sampleSnapshot()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, string(first), "stale")
}

func TestWriteFileCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "index.csv")
	require.NoError(t, WriteFile(path, sampleSnapshot()))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
