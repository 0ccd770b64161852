package app

import (
	"context"
	"io"

	"github.com/spf13/pflag"
	"github.com/xxxsen/mediaidx/internal/config"
)

// IRunner represents a runnable command in the application layer.
type IRunner interface {
	Name() string
	Desc() string
	Init(f *pflag.FlagSet)
	PreRun(ctx context.Context) error
	Run(ctx context.Context) error
	PostRun(ctx context.Context) error
}

// IBindable runners receive the loaded configuration and the writer used for
// operator-facing output before PreRun.
type IBindable interface {
	Bind(cfg *config.Config, out io.Writer)
}
