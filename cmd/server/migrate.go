package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seecr/gmh-registration-service/internal/platform/config"
	migrations "github.com/seecr/gmh-registration-service/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := databaseURL()
				if err != nil {
					return err
				}
				if err := migrations.Up(url); err != nil {
					return err
				}
				return printVersion(cmd, url)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, all of them when steps is omitted",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 0
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive number, got %q", args[0])
					}
					steps = n
				}
				url, err := databaseURL()
				if err != nil {
					return err
				}
				if err := migrations.Down(url, steps); err != nil {
					return err
				}
				return printVersion(cmd, url)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := databaseURL()
				if err != nil {
					return err
				}
				return printVersion(cmd, url)
			},
		},
	)
	return cmd
}

func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return "", fmt.Errorf("GMH_DATABASE_URL is not set")
	}
	return cfg.Database.URL, nil
}

func printVersion(cmd *cobra.Command, url string) error {
	version, dirty, err := migrations.Version(url)
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("schema version %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("schema version %d\n", version)
	return nil
}
