package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/journal"
	"mediasort/internal/logging"
	"mediasort/internal/preflight"
	"mediasort/internal/runinfo"
	"mediasort/internal/runlock"
	"mediasort/internal/workflow"
)

func newPassCommand(ctx *commandContext, command workflow.Command, short string) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   string(command) + " [root]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) == 1 {
				root = args[0]
			}
			cfg, err := ctx.passConfig(root)
			if err != nil {
				return err
			}
			if threshold != 0 {
				cfg.Split.Threshold = threshold
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("--threshold: %w", err)
				}
			}
			return runPass(cmd, ctx, cfg, command)
		},
	}
	if command == workflow.CommandSplit {
		cmd.Flags().IntVar(&threshold, "threshold", 0, "Maximum files per directory before splitting (default from config, 500)")
	}
	return cmd
}

func runPass(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, command workflow.Command) error {
	access := preflight.ReadOnly
	if command.Mutates() {
		access = preflight.ReadWrite
	}
	if err := preflight.Verify(preflight.RunAll(cfg, access, command == workflow.CommandMove)); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, closer, err := ctx.newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if command.Mutates() {
		lock, err := runlock.Acquire(cfg.LockPath())
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("run lock release failed", logging.Error(err))
			}
		}()
	}

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	var (
		store    *journal.Store
		recorder workflow.Recorder
		run      *journal.Run
	)
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.JournalPath())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		run, err = store.BeginRun(runCtx, string(command), cfg.Paths.InputDir)
		if err != nil {
			return fmt.Errorf("begin run: %w", err)
		}
		recorder = store
		runCtx = runinfo.WithRunID(runCtx, run.ID)
	}

	runner := workflow.NewRunner(afero.NewOsFs(), cfg, logger, recorder)
	summary, runErr := runner.Run(runCtx, command)

	if store != nil {
		finishRun(store, run, summary, runErr, logger)
	}

	renderSummary(newStatusPrinter(cmd.OutOrStdout()), summary, runErr)
	return runErr
}

func finishRun(store *journal.Store, run *journal.Run, summary workflow.Summary, runErr error, logger *slog.Logger) {
	status := journal.StatusCompleted
	message := ""
	switch {
	case errors.Is(runErr, context.Canceled):
		status = journal.StatusCancelled
		message = runErr.Error()
	case runErr != nil:
		status = journal.StatusFailed
		message = runErr.Error()
	}
	// The command context may already be cancelled; the final status must still land.
	if err := store.FinishRun(context.Background(), run.ID, status, summary.String(), message); err != nil {
		logging.WarnWithContext(logger, "journal finish failed", "journal_write_failed",
			logging.String(logging.FieldRunID, run.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked running in history"),
		)
	}
}

func renderSummary(status statusPrinter, summary workflow.Summary, runErr error) {
	sev := sevOK
	if runErr != nil {
		sev = sevError
	}
	status.line(string(summary.Command), sev, summary.String())
	if summary.RunID != "" {
		status.line("run", sevInfo, summary.RunID)
	}

	if summary.Listing == nil {
		return
	}
	status.line("listing", sevInfo, summary.Listing.ListingPath)
	rows := make([][]string, 0, len(summary.Listing.Extensions))
	for _, stat := range summary.Listing.Extensions {
		ext := stat.Extension
		if ext == "" {
			ext = "(none)"
		}
		rows = append(rows, []string{ext, strconv.Itoa(stat.Count), formatBytes(stat.Bytes)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(status.out, renderTable([]column{{title: "Extension"}, num("Files"), num("Size")}, rows))
	}
}
