package sink

import (
	"context"

	"github.com/xxxsen/mediaidx/internal/csvfile"
	"github.com/xxxsen/mediaidx/internal/model"
)

// CSVFileSink writes the snapshot to a local CSV file, replacing it.
type CSVFileSink struct {
	path string
}

func NewCSVFileSink(path string) *CSVFileSink {
	return &CSVFileSink{path: path}
}

func (s *CSVFileSink) Name() string { return "csv" }

func (s *CSVFileSink) Path() string { return s.path }

func (s *CSVFileSink) Write(ctx context.Context, snap *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return wrap(s.Name(), err)
	}
	return wrap(s.Name(), csvfile.WriteFile(s.path, snap))
}
