package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newAuthTelegramCommand is a stub: the interactive MTProto login flow
// (phone number, login code, optional 2FA password) that produces a
// SINK_STRING_SESSION value is out of scope here. Operators run gotd/td's
// own session-login tooling (or any MTProto login helper) once, out of
// band, and set the resulting string session in the environment.
func newAuthTelegramCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "auth:telegram",
		Short:  "Interactive sink-platform credential bootstrap (not implemented)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "auth:telegram is not implemented by this build.")
			fmt.Fprintln(cmd.OutOrStdout(), "Generate a string session with any MTProto login tool using SINK_API_ID/SINK_API_HASH,")
			fmt.Fprintln(cmd.OutOrStdout(), "then set SINK_STRING_SESSION in the environment before running sync:daemon.")
			return nil
		},
	}
}
