package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gmh-registration-service",
		Short: "URN:NBN identifier registration and resolution service",
		Long: `Registers URN:NBN persistent identifiers and the locations they resolve to.

Configuration comes from an optional .env file, an optional YAML file named by
GMH_CONFIG_FILE and GMH_* environment variables. Without a subcommand the HTTP
server starts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPasswdCmd(),
		newRegistrantCmd(),
	)
	return root
}
