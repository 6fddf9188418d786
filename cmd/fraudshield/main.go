package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "fraudshield"

// Version is set at build time
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "fraudshield",
		Short:         "FraudShield community trust and fraud risk service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
