package main

import (
	"encoding/json"
	"fmt"

	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <type> <id>",
		Short: "Print the trust record and risk verdict for an entity",
		Long: `Look up an entity the way the check endpoint does and print the result as JSON.

Examples:
  fraudshield check phone 0821234567
  fraudshield check domain fnb-co.za`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := trust.ParseEntityType(args[0])
			if err != nil {
				return err
			}

			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			check, err := a.community.CheckEntity(cmd.Context(), args[1], entityType)
			if err != nil {
				return fmt.Errorf("check %s %s: %w", entityType, args[1], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(check)
		},
	}
}
