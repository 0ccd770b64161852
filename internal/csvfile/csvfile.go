package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xxxsen/mediaidx/internal/model"
)

// Header is the first row of every index file.
var Header = []string{"Directory", "Filesystem_Path"}

// Encode writes the header and one row per snapshot entry, in snapshot order.
func Encode(w io.Writer, snap *model.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range snap.Pairs() {
		if err := cw.Write([]string{p.Name, p.Path}); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bytes encodes the snapshot into memory.
func Bytes(snap *model.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile replaces the file at path with the encoded snapshot.
func WriteFile(path string, snap *model.Snapshot) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
