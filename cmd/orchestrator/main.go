package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	// Optional .env for secrets (Redis password etc); absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "orchestrator",
		Short: "Multi-region trading-session orchestrator",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/orchestrator.yaml", "path to YAML config")

	root.AddCommand(
		newRunCmd(),
		newSessionsCmd(),
		newGateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
