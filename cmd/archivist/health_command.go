package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archivist/internal/daemonrun"
	"archivist/internal/preflight"
)

func newHealthCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health:check",
		Short: "Probe the source adapter and sink adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(cfg.SourceUsers) == 0 {
				return fmt.Errorf("SOURCE_USERS must name at least one account to health-check")
			}

			logger := daemonrun.NewLogger(daemonrun.Options{LogLevel: cfg.LogLevel, LogFormat: cfg.LogFormat})
			built, err := daemonrun.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer built.Close()

			probeHandle := cfg.SourceUsers[0]
			sourceErr := built.Source.HealthCheck(cmd.Context(), probeHandle)
			sinkErr := built.Sink.HealthCheck(cmd.Context())
			dirResults := preflight.RunAll(cfg)

			headers := []string{"check", "status", "detail"}
			rows := [][]string{
				{"source adapter (@" + probeHandle + ")", yesNo(sourceErr == nil), errDetail(sourceErr)},
				{"sink adapter", yesNo(sinkErr == nil), errDetail(sinkErr)},
			}
			failed := sourceErr != nil || sinkErr != nil
			for _, r := range dirResults {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
				if !r.Passed {
					failed = true
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))

			if failed {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
