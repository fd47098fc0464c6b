// Package cmd implements the policyctl CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

// NewRootCmd builds the policyctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "policyctl",
		Short: "Manage and try out taskhub access policies",
		Long: `policyctl loads users and policies from a YAML fixture file.

It can seed them into neo4j, evaluate a single request against the file
without any running service, and mint bearer tokens for local testing.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(newSeedCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
