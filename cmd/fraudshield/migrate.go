package main

import (
	"fmt"

	"github.com/richxcame/fraudshield/pkg/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back the database schema",
		Long: `Apply or roll back the embedded PostgreSQL migrations.

Examples:
  fraudshield migrate
  fraudshield migrate down --steps 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := database.Up
			if len(args) == 1 {
				d, err := database.ParseDirection(args[0])
				if err != nil {
					return err
				}
				direction = d
			}

			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := database.OpenSQL(&cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			return database.Migrate(db, direction, steps)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply (0 = all)")
	return cmd
}
