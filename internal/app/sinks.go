package app

import (
	"context"

	"github.com/xxxsen/mediaidx/internal/config"
	"github.com/xxxsen/mediaidx/internal/db"
	"github.com/xxxsen/mediaidx/internal/sink"
	"github.com/xxxsen/mediaidx/internal/storage"
)

// buildSinks returns the sinks enabled by cfg. The CSV file is always written.
func buildSinks(cfg *config.Config) []sink.Sink {
	sinks := []sink.Sink{sink.NewCSVFileSink(cfg.OutputFile)}

	if cfg.Database.Enabled {
		dbCfg := cfg.Database
		sinks = append(sinks, sink.NewRelationalSink(func(ctx context.Context) (sink.IndexStore, error) {
			return openIndexDAO(dbCfg)
		}, dbCfg.CreateTable))
	}

	if cfg.S3.Enabled {
		s3Cfg := cfg.S3
		sinks = append(sinks, sink.NewObjectStoreSink(func(ctx context.Context) (storage.Client, error) {
			return storage.NewS3Client(ctx, s3Cfg)
		}, s3Cfg.Key))
	}
	return sinks
}

func openIndexDAO(cfg config.DatabaseConfig) (*db.IndexDAO, error) {
	return db.NewIndexDAO(cfg.Driver, cfg.DataSource(), cfg.Table)
}
