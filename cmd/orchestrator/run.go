package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/config"
	"github.com/tradeops/session-orchestrator/internal/events"
	"github.com/tradeops/session-orchestrator/internal/journal"
	"github.com/tradeops/session-orchestrator/internal/observ"
	"github.com/tradeops/session-orchestrator/internal/risk"
	"github.com/tradeops/session-orchestrator/internal/scheduler"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the session scheduling loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry, err := cfg.BuildRegistry()
			if err != nil {
				return err
			}
			schedCfg, err := cfg.SchedulerConfig()
			if err != nil {
				return err
			}
			rules, err := cfg.BuildHandoffRules()
			if err != nil {
				return err
			}

			calendar := adapters.NewSimCalendar()
			for _, sess := range registry.List() {
				for _, ex := range sess.Exchanges {
					if !calendar.Known(ex) {
						return fmt.Errorf("session %q references unknown exchange %q", sess.ID, ex)
					}
				}
			}

			pubs := events.Multi{events.LogPublisher{}}
			if cfg.Journal.Path != "" {
				j, err := journal.NewSQLite(cfg.Journal.Path)
				if err != nil {
					return fmt.Errorf("open journal: %w", err)
				}
				defer j.Close()
				pubs = append(pubs, journal.NewPublisher(j))
			}
			if cfg.Redis.Enabled {
				rp, err := events.NewRedisPublisher(cfg.RedisConfig())
				if err != nil {
					return err
				}
				defer rp.Close()
				pubs = append(pubs, rp)
			}

			budgets := risk.NewBudgetController()
			// Agent and order control are external collaborators; until a
			// backend is wired in, command intents are logged.
			agents := &loggingAgentControl{}
			orders := &loggingOrderControl{}

			handoff, err := scheduler.NewHandoffCoordinator(rules, orders, budgets, pubs, schedCfg.CallTimeout)
			if err != nil {
				return err
			}

			sched := scheduler.New(registry, budgets, calendar, agents, pubs, handoff, nil, schedCfg)

			go func() {
				observ.Log("metrics_listening", map[string]any{"addr": cfg.MetricsAddr})
				if err := http.ListenAndServe(cfg.MetricsAddr, observ.Handler()); err != nil {
					observ.Warn("metrics_server_stopped", map[string]any{"error": err.Error()})
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			observ.Log("orchestrator_started", map[string]any{
				"sessions":      registry.Len(),
				"tick_interval": schedCfg.TickInterval.String(),
				"timezone":      cfg.Timezone,
			})
			sched.Run(ctx)
			observ.Log("orchestrator_stopped", nil)
			return nil
		},
	}
}

type loggingAgentControl struct{}

func (loggingAgentControl) EnableAgents(ctx context.Context, sessionID string) error {
	observ.Log("agents_enable", map[string]any{"session": sessionID})
	return nil
}

func (loggingAgentControl) DisableAgents(ctx context.Context, sessionID string) error {
	observ.Log("agents_disable", map[string]any{"session": sessionID})
	return nil
}

type loggingOrderControl struct{}

func (loggingOrderControl) RestrictEntries(ctx context.Context, scope string) error {
	observ.Log("orders_restrict_entries", map[string]any{"scope": scope})
	return nil
}

func (loggingOrderControl) FlattenIntraday(ctx context.Context, scope string) error {
	observ.Log("orders_flatten_intraday", map[string]any{"scope": scope})
	return nil
}
