package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/teamcutter/unarc/internal/config"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/manager"
	"github.com/teamcutter/unarc/internal/state"
)

var (
	configPath string
	verbose    bool
)

func Execute(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "unarc",
		Short:         "Extract tar, zip and 7z archives safely",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.unarc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every entry")

	rootCmd.AddCommand(
		newExtractCmd(),
		newBatchCmd(),
		newListCmd(),
		newDetectCmd(),
		newFormatsCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	return cfg, nil
}

func newManager() (*manager.Manager, *config.Config, domain.Journal, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	journal, err := state.Open(cfg.JournalDriver, cfg.JournalPath())
	if err != nil {
		return nil, nil, nil, err
	}

	return manager.New(journal, logrus.StandardLogger(), cfg.BufferSize), cfg, journal, nil
}
