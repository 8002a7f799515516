package main

import (
	"github.com/spf13/cobra"

	"mediasort/internal/workflow"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "mediasort",
		Short:         "Organize, deduplicate and shard a media collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	persistent.StringVarP(&flags.outputDir, "out", "o", "", "Output directory for the dated hierarchy (default ./out)")
	persistent.StringVarP(&flags.logDir, "log", "l", "", "Directory for logs, listings and the run journal (default ./log)")
	persistent.StringVar(&flags.logLevel, "log-level", "", "Console log level (debug, info, warn, error)")
	persistent.StringVar(&flags.logFormat, "log-format", "", "Console log format (console, json)")

	rootCmd.AddCommand(newPassCommand(ctx, workflow.CommandList, "Write a listing of every file with extension statistics"))
	rootCmd.AddCommand(newPassCommand(ctx, workflow.CommandMove, "Move dated media files into output/YYYY/YYYY-MM-DD"))
	rootCmd.AddCommand(newPassCommand(ctx, workflow.CommandDedup, "Delete duplicate files within each directory"))
	rootCmd.AddCommand(newPassCommand(ctx, workflow.CommandSplit, "Split directories holding too many files into numbered shards"))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
