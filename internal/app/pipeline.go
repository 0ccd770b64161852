package app

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/aggregate"
	"github.com/xxxsen/mediaidx/internal/config"
	"github.com/xxxsen/mediaidx/internal/model"
	"github.com/xxxsen/mediaidx/internal/sink"
	"github.com/xxxsen/mediaidx/internal/volume"
	"go.uber.org/zap"
)

// RunReport summarises one indexing run.
type RunReport struct {
	Volumes    []model.VolumeRecord
	Snapshot   *model.Snapshot
	Collisions []model.CollisionEvent
	Warnings   []error
	Outcomes   []sink.Outcome
	Elapsed    time.Duration
}

// FailedSinks returns the sink outcomes that carry an error.
func (r *RunReport) FailedSinks() []sink.Outcome {
	return sink.Failed(r.Outcomes)
}

// Pipeline runs discovery, aggregation, ordering and the sink fan-out.
type Pipeline struct {
	cfg   *config.Config
	sinks []sink.Sink
}

func NewPipeline(cfg *config.Config, sinks []sink.Sink) *Pipeline {
	return &Pipeline{cfg: cfg, sinks: sinks}
}

// Run executes the pipeline once. Only discovery failures and cancellation
// are returned as errors; everything else is recorded in the report.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	logger := logutil.GetLogger(ctx)
	start := time.Now()

	volumes, err := volume.Locate(ctx, p.cfg.ScanRoot, p.cfg.ArchiveName)
	if err != nil {
		return nil, err
	}
	records := volume.Records(volumes)
	logger.Info("volumes discovered",
		zap.Int("count", len(records)),
		zap.Strings("labels", volume.Labels(volumes)),
	)

	agg, err := aggregate.New(aggregate.Options{
		Mode:          aggregate.DuplicateMode(p.cfg.DuplicateMode),
		Suffix:        p.cfg.DuplicateSuffix,
		ReservedNames: p.cfg.ReservedNames,
		Workers:       p.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	res, err := agg.Aggregate(ctx, volumes)
	if err != nil {
		return nil, err
	}

	snap := model.NewSnapshot(res.Entries)
	logger.Info("snapshot built",
		zap.Int("entries", snap.Len()),
		zap.Int("collisions", len(res.Collisions)),
		zap.Int("warnings", len(res.Warnings)),
	)

	outcomes := sink.WriteAll(ctx, snap, p.sinks)

	return &RunReport{
		Volumes:    records,
		Snapshot:   snap,
		Collisions: res.Collisions,
		Warnings:   res.Warnings,
		Outcomes:   outcomes,
		Elapsed:    time.Since(start),
	}, nil
}
