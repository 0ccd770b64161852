package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/config"
	"github.com/xxxsen/mediaidx/internal/sink"
	"go.uber.org/zap"
)

// IndexCommand scans every archive root and rewrites the index sinks.
type IndexCommand struct {
	cfg *config.Config
	out io.Writer

	scanRoot    string
	archiveName string
	output      string
	mode        string
	strict      bool
	dryRun      bool

	sinks  []sink.Sink
	report *RunReport
}

func NewIndexCommand() *IndexCommand { return &IndexCommand{out: os.Stdout} }

func (c *IndexCommand) Name() string { return "index" }

func (c *IndexCommand) Desc() string {
	return "Scan all archive roots and rewrite the CSV index and database table"
}

func (c *IndexCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.scanRoot, "scan-root", "", "Directory holding the volume mounts (overrides config)")
	f.StringVar(&c.archiveName, "archive-name", "", "Archive root directory name (overrides config)")
	f.StringVar(&c.output, "output", "", "CSV output path (overrides config)")
	f.StringVar(&c.mode, "duplicate-mode", "", "Duplicate keying: shared or numbered (overrides config)")
	f.BoolVar(&c.strict, "strict", false, "Exit non-zero when any sink fails")
	f.BoolVar(&c.dryRun, "dry-run", false, "Scan and report without writing any sink")
}

func (c *IndexCommand) Bind(cfg *config.Config, out io.Writer) {
	c.cfg = cfg
	c.out = out
}

func (c *IndexCommand) PreRun(ctx context.Context) error {
	if c.cfg == nil {
		return errors.New("index requires a loaded configuration")
	}
	if v := strings.TrimSpace(c.scanRoot); v != "" {
		c.cfg.ScanRoot = v
	}
	if v := strings.TrimSpace(c.archiveName); v != "" {
		c.cfg.ArchiveName = v
	}
	if v := strings.TrimSpace(c.output); v != "" {
		c.cfg.OutputFile = v
	}
	if v := strings.TrimSpace(c.mode); v != "" {
		c.cfg.DuplicateMode = v
	}
	if c.strict {
		c.cfg.Strict = true
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	if !c.dryRun {
		c.sinks = buildSinks(c.cfg)
	}
	sinkNames := make([]string, 0, len(c.sinks))
	for _, s := range c.sinks {
		sinkNames = append(sinkNames, s.Name())
	}
	logutil.GetLogger(ctx).Info("starting index",
		zap.String("scan_root", c.cfg.ScanRoot),
		zap.String("archive_name", c.cfg.ArchiveName),
		zap.String("output", c.cfg.OutputFile),
		zap.String("duplicate_mode", c.cfg.DuplicateMode),
		zap.Strings("sinks", sinkNames),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

func (c *IndexCommand) Run(ctx context.Context) error {
	report, err := NewPipeline(c.cfg, c.sinks).Run(ctx)
	if err != nil {
		return fmt.Errorf("index run: %w", err)
	}
	c.report = report

	printCollisions(c.out, report.Collisions)
	printWarnings(c.out, report.Warnings)
	printSummary(c.out, c.cfg.OutputFile, report)

	failed := report.FailedSinks()
	if len(failed) > 0 && c.cfg.Strict {
		errs := make([]error, 0, len(failed))
		for _, o := range failed {
			errs = append(errs, o.Err)
		}
		return fmt.Errorf("%d sink(s) failed: %w", len(failed), errors.Join(errs...))
	}
	return nil
}

func (c *IndexCommand) PostRun(ctx context.Context) error {
	if c.report == nil {
		return nil
	}
	logutil.GetLogger(ctx).Info("index finished",
		zap.Int("entries", c.report.Snapshot.Len()),
		zap.Int("collisions", len(c.report.Collisions)),
		zap.Int("failed_sinks", len(c.report.FailedSinks())),
		zap.Duration("elapsed", c.report.Elapsed),
	)
	return nil
}

// Report returns the outcome gathered during Run.
func (c *IndexCommand) Report() *RunReport {
	return c.report
}

func init() {
	RegisterRunner("index", func() IRunner { return NewIndexCommand() })
}
