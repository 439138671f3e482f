package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradeops/session-orchestrator/internal/config"
	"github.com/tradeops/session-orchestrator/internal/gate"
)

func newGateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate SYMBOL",
		Short: "Run a one-shot pre-trade admission check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			md, err := cfg.BuildMarketData()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			guard := gate.New(md, cfg.GateConfig())
			d := guard.PreTradeGuard(ctx, args[0])
			fmt.Printf("symbol=%s admit=%t reason=%s spread=%.2fbps depth=%d latency=%s\n",
				args[0], d.Admit, d.Reason, d.SpreadBps, d.Depth, d.Latency)
			if !d.Admit {
				return fmt.Errorf("rejected: %s", d.Reason)
			}
			return nil
		},
	}
}
