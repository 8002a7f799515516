package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mediasort/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs and the changes they made",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.JournalPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(cmd.OutOrStdout(), "No history recorded yet (%s)\n", path)
				return nil
			}
			store, err := journal.Open(path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if runID != "" {
				return showRun(cmd, store, runID)
			}
			return listRuns(cmd, store, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the actions of one run (full ID or unique prefix)")
	return cmd
}

func listRuns(cmd *cobra.Command, store *journal.Store, limit int) error {
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Command,
			titleCase(string(run.Status)),
			formatTimestamp(run.StartedAt),
			formatDuration(run.Duration()),
			strconv.Itoa(run.ActionCount),
			run.InputDir,
		})
	}
	columns := append(cols("Run", "Command", "Status", "Started"), num("Duration"), num("Changes"), column{title: "Input"})
	fmt.Fprintln(out, renderTable(columns, rows))
	return nil
}

func showRun(cmd *cobra.Command, store *journal.Store, id string) error {
	run, err := store.FindRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	actions, err := store.Actions(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)
	status.line("run", sevInfo, run.ID)
	status.line("command", sevInfo, run.Command+" "+run.InputDir)
	status.line("status", runSeverity(run.Status), titleCase(string(run.Status)))
	status.line("started", sevInfo, formatTimestamp(run.StartedAt))
	if run.Summary != "" {
		status.line("summary", sevInfo, run.Summary)
	}
	if run.ErrorMessage != "" {
		status.line("error", sevError, run.ErrorMessage)
	}
	if len(actions) == 0 {
		fmt.Fprintln(out, "No changes recorded")
		return nil
	}

	rows := make([][]string, 0, len(actions))
	for _, action := range actions {
		rows = append(rows, []string{string(action.Kind), action.Source, action.Target, shortID(action.Digest)})
	}
	fmt.Fprintln(out, renderTable(cols("Kind", "Source", "Target", "Digest"), rows))
	return nil
}
