package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/mediaidx/internal/app"
	"github.com/xxxsen/mediaidx/internal/config"
	"go.uber.org/zap"
)

// Execute runs the CLI.
func Execute() error {
	if err := newRootCommand().Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func newRootCommand() *cobra.Command {
	var configFile string

	def := app.MustResolveRunner(app.DefaultRunner)
	root := &cobra.Command{
		Use:           "mediaidx",
		Short:         "Index media archive directories across mounted volumes",
		Long:          "Without a subcommand mediaidx runs \"" + def.Name() + "\": " + def.Desc() + ".",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runnerRunE(def, &configFile),
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to the JSON/YAML config file")
	def.Init(root.Flags())

	for _, name := range app.RunnerList() {
		runner := app.MustResolveRunner(name)
		subcmd := &cobra.Command{
			Use:   runner.Name(),
			Short: runner.Desc(),
			Args:  cobra.NoArgs,
			RunE:  runnerRunE(runner, &configFile),
		}
		runner.Init(subcmd.Flags())
		root.AddCommand(subcmd)
	}
	return root
}

func runnerRunE(runner app.IRunner, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoadOptions{ConfigFile: *configFile})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.File, cfg.Log.Level, 0, 0, 0, true)

		if b, ok := runner.(app.IBindable); ok {
			b.Bind(cfg, cmd.OutOrStdout())
		}

		ctx := commandContext(cmd)
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		if err := runner.PreRun(ctx); err != nil {
			return err
		}
		if err := runner.Run(ctx); err != nil {
			return err
		}
		return runner.PostRun(ctx)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
