package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archivist/internal/logging"
	"archivist/internal/source"
)

func newCookiesCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cookies:check",
		Short: "Parse the cookie bundle and run a session check against the source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			bundle, parseErr := source.ParseCookies(cfg.SourceCookiesJSON)
			if parseErr != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"check", "status", "detail"},
					[][]string{{"cookie bundle format", "no", parseErr.Error()}},
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return fmt.Errorf("cookie bundle format is invalid: %w", parseErr)
			}

			logger := logging.New(logging.Options{Format: cfg.LogFormat, Level: logging.ParseLevel(cfg.LogLevel)})
			client := source.New(bundle, cfg.SourceWebBearerToken, logger)
			status := client.CheckSession(cmd.Context())

			rows := [][]string{
				{"cookie bundle format", "yes", fmt.Sprintf("%d auth pair(s), %d domain rewrite(s)", len(bundle.AuthPairs), bundle.DomainRewrites)},
				{"session check", yesNo(status.LoggedIn), sessionDetail(status)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"check", "status", "detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if !status.LoggedIn {
				return fmt.Errorf("source session check failed: %s", status.Reason)
			}
			return nil
		},
	}
}

func sessionDetail(status source.SessionStatus) string {
	if status.LoggedIn {
		return "authenticated via " + status.Host
	}
	return status.Reason
}
