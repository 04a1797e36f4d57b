package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			defer func() { _ = log.Close() }()

			db, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("Migration failed: %v", err)

				return err
			}

			err = db.Close()
			if err != nil {
				return fmt.Errorf("failed to close database: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date: %s\n", cfg.Database.Path)

			return nil
		},
	}
}
