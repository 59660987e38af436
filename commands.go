package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SusheelSathyaraj/PaperPipe/database"
	"github.com/SusheelSathyaraj/PaperPipe/ingest"
	"github.com/SusheelSathyaraj/PaperPipe/rawkv"
	"github.com/SusheelSathyaraj/PaperPipe/spreadsheet"
)

type loadOptions struct {
	file      string
	paperID   int
	target    string
	sheet     string
	password  string
	validate  bool
	snapshots bool
}

func newLoadCmd(root *rootOptions) *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load one paper's sheet and commit it",
		Example: `  paperpipe load --file papers/35.xlsx --paper-id 35
  paperpipe load --file papers/35.xlsx --target postgresql --sheet summary --validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Spreadsheet to load (.xlsx, .xlsm or .csv)")
	cmd.Flags().IntVar(&opts.paperID, "paper-id", 35, "Paper identifier stamped on every row")
	cmd.Flags().StringVar(&opts.target, "target", "", "Target database type (mysql,postgresql,mongodb), defaults to the config")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet to read, defaults to the config")
	cmd.Flags().StringVar(&opts.password, "sheet-password", "", "Password of an encrypted workbook")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate staged rows before committing")
	cmd.Flags().BoolVar(&opts.snapshots, "snapshots", true, "Write a snapshot per commit for recovery")
	return cmd
}

func runLoad(cmd *cobra.Command, root *rootOptions, opts *loadOptions) error {
	if err := validateInput(opts.file, opts.paperID, opts.target); err != nil {
		return err
	}

	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	if opts.target != "" {
		cfg.Target = strings.ToLower(opts.target)
	}
	if cmd.Flags().Changed("validate") {
		cfg.Ingest.Validate = opts.validate
	}
	sheet := cfg.Loader.Sheet
	if opts.sheet != "" {
		sheet = opts.sheet
	}

	target, err := database.NewTargetFromConfig(cfg)
	if err != nil {
		return err
	}
	root.logger.Info("Attempting to connect to %s database...", cfg.Target)
	if err := target.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s database, %w", cfg.Target, err)
	}
	defer target.Close()

	factory := ingest.NewRawKVFactory(
		spreadsheet.NewReader(),
		target,
		database.NewTableRegistry(cfg.Tables),
		rawkv.WithSheet(sheet),
		rawkv.WithLogger(root.logger),
		rawkv.WithCommitOptions(
			rawkv.WithChunkSize(cfg.Loader.ChunkSize),
			rawkv.WithBulkThreshold(cfg.Loader.BulkThreshold),
		),
	)

	engine := ingest.NewEngine(ingest.EngineConfig{
		Target:       cfg.Target,
		ValidateData: cfg.Ingest.Validate,
		StopOnError:  true,
	}, factory)
	engine.Logger = root.logger
	engine.Report = cmd.OutOrStdout()

	if opts.snapshots {
		snapshots, err := ingest.NewSnapshotManager(cfg.Ingest.SnapshotDir, root.logger)
		if err != nil {
			root.logger.Warn("Snapshots disabled, %v", err)
		} else {
			engine.Snapshots = snapshots
		}
	}

	result, err := engine.Run(cmd.Context(), []ingest.Job{{PaperID: opts.paperID, File: opts.file, Password: opts.password}})
	printResult(cmd.OutOrStdout(), result)
	return err
}

func printResult(w io.Writer, result *ingest.Result) {
	if result == nil {
		return
	}
	for _, p := range result.Papers {
		status := "ok"
		if !p.Success {
			status = "FAILED: " + p.Error
		}
		fmt.Fprintf(w, "paper %d: %d rows staged, %d committed to %s in %v (%s)\n",
			p.PaperID, p.RowsStaged, p.RowsCommitted, p.Table, p.Duration.Round(time.Millisecond), status)
		if p.SnapshotID != "" && !p.Success {
			fmt.Fprintf(w, "  staged rows kept in snapshot %s\n", p.SnapshotID)
		}
	}
}

type cleanupOptions struct {
	olderThan     time.Duration
	includeFailed bool
}

func newSnapshotsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect and clean up commit snapshots",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := openSnapshots(cmd, root)
			if err != nil {
				return err
			}
			snapshots, err := sm.ListSnapshots()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPAPER\tTABLE\tSTATUS\tCOMMITTED\tTIME")
			for _, s := range snapshots {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
					s.ID, s.PaperID, s.Table, s.Status, s.Committed, s.Timestamp.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	opts := &cleanupOptions{}
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove completed snapshots older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := openSnapshots(cmd, root)
			if err != nil {
				return err
			}
			cleaned, err := sm.CleanupOldSnapshots(opts.olderThan, opts.includeFailed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d snapshots\n", cleaned)
			return nil
		},
	}
	cleanup.Flags().DurationVar(&opts.olderThan, "older-than", 7*24*time.Hour, "Minimum snapshot age to remove")
	cleanup.Flags().BoolVar(&opts.includeFailed, "include-failed", false, "Also remove failed snapshots")

	cmd.AddCommand(list, cleanup)
	return cmd
}

func openSnapshots(cmd *cobra.Command, root *rootOptions) (*ingest.SnapshotManager, error) {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return ingest.NewSnapshotManager(cfg.Ingest.SnapshotDir, root.logger)
}
