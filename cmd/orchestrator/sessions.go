package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradeops/session-orchestrator/internal/config"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "Print the configured session registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			registry, err := cfg.BuildRegistry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTIVE\tWINDOW\tEXCHANGES\tUNIVERSE\tGROSS%\tNOTIONAL\tCOOLDOWN")
			for _, s := range registry.List() {
				fmt.Fprintf(w, "%s\t%t\t%s-%s\t%v\t%s\t%.1f%%\t%.0f\t%s\n",
					s.ID, s.Active, s.WindowStart, s.WindowEnd, s.Exchanges,
					s.Universe, s.MaxGrossExposurePct*100, s.MaxOrderNotional, s.Cooldown)
			}
			return w.Flush()
		},
	}
}
