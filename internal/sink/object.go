package sink

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/csvfile"
	"github.com/xxxsen/mediaidx/internal/model"
	"github.com/xxxsen/mediaidx/internal/storage"
	"go.uber.org/zap"
)

const csvContentType = "text/csv"

// ClientOpener builds the object storage client on first use.
type ClientOpener func(ctx context.Context) (storage.Client, error)

// ObjectStoreSink uploads the CSV encoding of the snapshot to object storage.
type ObjectStoreSink struct {
	open ClientOpener
	key  string
}

func NewObjectStoreSink(open ClientOpener, key string) *ObjectStoreSink {
	return &ObjectStoreSink{open: open, key: key}
}

func (s *ObjectStoreSink) Name() string { return "s3" }

func (s *ObjectStoreSink) Write(ctx context.Context, snap *model.Snapshot) error {
	data, err := csvfile.Bytes(snap)
	if err != nil {
		return wrap(s.Name(), err)
	}
	client, err := s.open(ctx)
	if err != nil {
		return wrap(s.Name(), fmt.Errorf("init client: %w", err))
	}
	if err := client.Upload(ctx, s.key, data, csvContentType); err != nil {
		return wrap(s.Name(), err)
	}
	logutil.GetLogger(ctx).Debug("index uploaded",
		zap.String("location", client.Location(s.key)),
		zap.Int("bytes", len(data)),
	)
	return nil
}
