package sink

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/model"
	"go.uber.org/zap"
)

// IndexStore is the relational table the snapshot replaces.
type IndexStore interface {
	EnsureSchema(ctx context.Context) error
	ReplaceAll(ctx context.Context, pairs []model.Pair) (int, error)
	Close() error
}

// StoreOpener connects to the relational store. It is called from Write so
// that connection failures surface as sink errors.
type StoreOpener func(ctx context.Context) (IndexStore, error)

// RelationalSink fully replaces the index table with the snapshot.
type RelationalSink struct {
	open        StoreOpener
	createTable bool
}

func NewRelationalSink(open StoreOpener, createTable bool) *RelationalSink {
	return &RelationalSink{open: open, createTable: createTable}
}

func (s *RelationalSink) Name() string { return "database" }

func (s *RelationalSink) Write(ctx context.Context, snap *model.Snapshot) error {
	store, err := s.open(ctx)
	if err != nil {
		return wrap(s.Name(), fmt.Errorf("connect: %w", err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logutil.GetLogger(ctx).Warn("close index store failed", zap.Error(err))
		}
	}()

	if s.createTable {
		if err := store.EnsureSchema(ctx); err != nil {
			return wrap(s.Name(), err)
		}
	}
	written, err := store.ReplaceAll(ctx, snap.Pairs())
	if err != nil {
		return wrap(s.Name(), fmt.Errorf("replace index: %w", err))
	}
	logutil.GetLogger(ctx).Debug("index table replaced", zap.Int("rows", written))
	return nil
}
