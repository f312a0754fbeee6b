// Package cli wires the accounts binary: configuration, logging, storage and
// the HTTP server or one-shot maintenance tasks.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "accounts",
		Short:         "Account registration, login and role-based access control",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServerCommand(),
		newTaskCommand(),
	)

	return rootCmd
}
