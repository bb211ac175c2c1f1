package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archivist/internal/daemonrun"
	"archivist/internal/logging"
)

func newSyncRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync:run",
		Short: "Execute exactly one sync run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncOnce(cmd, ctx)
		},
	}
}

func newSyncDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync:daemon",
		Short: "Start the scheduler loop and run until killed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncDaemon(cmd, ctx)
		},
	}
}

func runSyncOnce(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := daemonrun.NewLogger(daemonrun.Options{LogLevel: cfg.LogLevel, LogFormat: cfg.LogFormat})
	built, err := daemonrun.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer built.Close()

	summary, err := built.Engine.Run(cmd.Context())
	if err != nil {
		logger.Error("sync run failed", logging.Error(err))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderRunSummaryTable(summary))
	for _, account := range summary.Accounts {
		if account.Failed > 0 {
			return fmt.Errorf("sync run completed with failures on @%s", account.Handle)
		}
	}
	return nil
}

func runSyncDaemon(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return daemonrun.Run(signalCtx, cfg, daemonrun.Options{LogLevel: cfg.LogLevel, LogFormat: cfg.LogFormat})
}
