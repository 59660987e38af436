package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
)

// validate inputs, file, paper id and target
func validateInput(file string, paperID int, target string) error {
	if strings.TrimSpace(file) == "" {
		return fmt.Errorf("a spreadsheet file must be specified")
	}

	if paperID <= 0 {
		return fmt.Errorf("invalid paper id %d", paperID)
	}

	//an empty target falls back to the configured one
	if target != "" && !isValidDatabase(target, config.SupportedTargets) {
		return fmt.Errorf("invalid target database type %s", target)
	}
	return nil
}

func isValidDatabase(db string, slice []string) bool {
	for _, v := range slice {
		if strings.EqualFold(v, db) {
			return true
		}
	}
	return false
}

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
	logger     *monitoring.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "paperpipe",
		Short: "Load paper spreadsheets into the raw key/value table",
		Long: `paperpipe reads one sheet of a paper's spreadsheet, turns every cell into a
(paper_id, raw_id, key, value) row and appends the rows to the raw key/value
table of the configured database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				monitoring.DefaultLogger = monitoring.NewLogger(monitoring.LogLevelDebug)
			}
			opts.logger = monitoring.DefaultLogger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to .env file with PAPERPIPE_* variables")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newLoadCmd(opts), newSnapshotsCmd(opts))
	return cmd
}

// loading .env, config.yaml and environment overrides, in that order
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		//the default config file is optional
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, err
		}
		cfg = config.Default()
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
