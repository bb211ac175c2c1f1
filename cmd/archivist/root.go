package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "archivist",
		Short:         "Daily media-sync daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("APP_MODE") == "daemon" {
				return runSyncDaemon(cmd, ctx)
			}
			return runSyncOnce(cmd, ctx)
		},
	}

	rootCmd.AddCommand(newSyncRunCommand(ctx))
	rootCmd.AddCommand(newSyncDaemonCommand(ctx))
	rootCmd.AddCommand(newAuthTelegramCommand(ctx))
	rootCmd.AddCommand(newHealthCheckCommand(ctx))
	rootCmd.AddCommand(newCookiesCheckCommand(ctx))

	return rootCmd
}
