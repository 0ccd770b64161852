package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink persists a finished snapshot somewhere.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap *model.Snapshot) error
}

// SinkError wraps a failure of a single sink. Sink failures never affect the
// other sinks of the same run.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Sink: name, Err: err}
}

// Outcome is the result of one sink within a fan-out.
type Outcome struct {
	Sink    string
	Err     error
	Elapsed time.Duration
}

// WriteAll hands the snapshot to every sink concurrently and returns one
// outcome per sink, in the order the sinks were given.
func WriteAll(ctx context.Context, snap *model.Snapshot, sinks []Sink) []Outcome {
	logger := logutil.GetLogger(ctx)
	outcomes := make([]Outcome, len(sinks))
	var g errgroup.Group
	for i, s := range sinks {
		g.Go(func() error {
			start := time.Now()
			err := s.Write(ctx, snap)
			outcomes[i] = Outcome{Sink: s.Name(), Err: err, Elapsed: time.Since(start)}
			if err != nil {
				logger.Error("sink write failed", zap.String("sink", s.Name()), zap.Error(err))
				return nil
			}
			logger.Info("sink write finished",
				zap.String("sink", s.Name()),
				zap.Int("rows", snap.Len()),
				zap.Duration("elapsed", outcomes[i].Elapsed),
			)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
