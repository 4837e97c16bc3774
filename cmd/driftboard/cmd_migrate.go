package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otavio/driftboard/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := connectDB(); err != nil {
			return err
		}

		if err := db.Migrate(pool); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		fmt.Println("Schema is current.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
