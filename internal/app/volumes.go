package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/config"
	"github.com/xxxsen/mediaidx/internal/volume"
	"go.uber.org/zap"
)

// VolumesCommand lists the archive roots discovery would index.
type VolumesCommand struct {
	cfg *config.Config
	out io.Writer

	scanRoot string
}

func NewVolumesCommand() *VolumesCommand { return &VolumesCommand{out: os.Stdout} }

func (c *VolumesCommand) Name() string { return "volumes" }

func (c *VolumesCommand) Desc() string {
	return "List discovered volume labels and their archive roots"
}

func (c *VolumesCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.scanRoot, "scan-root", "", "Directory holding the volume mounts (overrides config)")
}

func (c *VolumesCommand) Bind(cfg *config.Config, out io.Writer) {
	c.cfg = cfg
	c.out = out
}

func (c *VolumesCommand) PreRun(ctx context.Context) error {
	if c.cfg == nil {
		return errors.New("volumes requires a loaded configuration")
	}
	if c.scanRoot != "" {
		c.cfg.ScanRoot = c.scanRoot
	}
	logutil.GetLogger(ctx).Debug("starting volumes", zap.String("scan_root", c.cfg.ScanRoot))
	return nil
}

func (c *VolumesCommand) Run(ctx context.Context) error {
	volumes, err := volume.Locate(ctx, c.cfg.ScanRoot, c.cfg.ArchiveName)
	if err != nil {
		return err
	}
	records := volume.Records(volumes)
	if len(records) == 0 {
		fmt.Fprintf(c.out, "No %s directories found under %s\n", c.cfg.ArchiveName, c.cfg.ScanRoot)
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(c.out, "%s\t%s\n", rec.Label, rec.RootPath)
	}
	return nil
}

func (c *VolumesCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("volumes", func() IRunner { return NewVolumesCommand() })
}
