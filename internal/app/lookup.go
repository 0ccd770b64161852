package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/config"
	"github.com/xxxsen/mediaidx/internal/model"
	"go.uber.org/zap"
)

// LookupCommand reads items back from the index table and prints them as JSON.
type LookupCommand struct {
	cfg *config.Config
	out io.Writer

	name  string
	limit int
}

func NewLookupCommand() *LookupCommand { return &LookupCommand{out: os.Stdout} }

func (c *LookupCommand) Name() string { return "lookup" }

func (c *LookupCommand) Desc() string {
	return "Find indexed items by name in the database and show their location"
}

func (c *LookupCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Case-insensitive substring of the item name")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of rows (0 for no limit)")
}

func (c *LookupCommand) Bind(cfg *config.Config, out io.Writer) {
	c.cfg = cfg
	c.out = out
}

func (c *LookupCommand) PreRun(ctx context.Context) error {
	c.name = strings.TrimSpace(c.name)
	if c.name == "" {
		return errors.New("lookup requires --name")
	}
	if c.cfg == nil {
		return errors.New("lookup requires a loaded configuration")
	}
	if !c.cfg.Database.Enabled {
		return errors.New("lookup requires database.enabled")
	}
	logutil.GetLogger(ctx).Info("starting lookup",
		zap.String("name", c.name),
		zap.String("database", c.cfg.Database.Redacted()),
	)
	return nil
}

func (c *LookupCommand) Run(ctx context.Context) error {
	dao, err := openIndexDAO(c.cfg.Database)
	if err != nil {
		return err
	}
	defer dao.Close()

	items, err := dao.Find(ctx, c.name, c.limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logutil.GetLogger(ctx).Warn("no indexed item matched", zap.String("name", c.name))
		items = []model.StoredItem{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lookup result: %w", err)
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

func (c *LookupCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("lookup completed")
	return nil
}

func init() {
	RegisterRunner("lookup", func() IRunner { return NewLookupCommand() })
}
