// Package scheduler drives the multi-region session control loop: phase
// evaluation, agent enablement, risk budget updates and handoff rules, all
// from a single periodic tick.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/events"
	"github.com/tradeops/session-orchestrator/internal/observ"
	"github.com/tradeops/session-orchestrator/internal/risk"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

// Config tunes the tick loop.
type Config struct {
	// TickInterval is the period between scheduling passes.
	TickInterval time.Duration
	// CallTimeout bounds every collaborator call made during a tick so one
	// hung backend cannot stall the loop.
	CallTimeout time.Duration
	// TradingDays is the whole-system trading-day mask checked before any
	// per-session logic.
	TradingDays sessions.WeekdaySet
}

func (c *Config) applyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = 15 * time.Second
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 5 * time.Second
	}
	if c.TradingDays == 0 {
		c.TradingDays = sessions.MonThroughFri
	}
}

// Scheduler recomputes every session's phase on each tick and drives agent
// enablement. It keeps no state between ticks: the same time and exchange
// status always produce the same phases, enable/disable calls and events,
// so a restart reproduces the stream without reloading anything.
type Scheduler struct {
	registry *sessions.Registry
	budgets  *risk.BudgetController
	calendar adapters.ExchangeCalendar
	agents   adapters.AgentControl
	pub      events.Publisher
	handoff  *HandoffCoordinator
	clock    Clock
	cfg      Config

	inFlight atomic.Bool
}

// New wires a scheduler. handoff may be nil when no handoff rules are
// configured; clock nil means the system clock.
func New(
	registry *sessions.Registry,
	budgets *risk.BudgetController,
	calendar adapters.ExchangeCalendar,
	agents adapters.AgentControl,
	pub events.Publisher,
	handoff *HandoffCoordinator,
	clock Clock,
	cfg Config,
) *Scheduler {
	cfg.applyDefaults()
	if clock == nil {
		clock = SystemClock()
	}
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &Scheduler{
		registry: registry,
		budgets:  budgets,
		calendar: calendar,
		agents:   agents,
		pub:      pub,
		handoff:  handoff,
		clock:    clock,
		cfg:      cfg,
	}
}

// Run drives Tick on the configured interval until ctx is cancelled. The
// tick in flight when cancellation arrives completes; no new tick starts.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass. It never returns an error to its driver:
// every per-session failure degrades to the conservative phase and a
// warning. A tick that would overlap a still-running one is skipped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		observ.IncCounter("scheduler_ticks_skipped_total", nil)
		return
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	now := s.clock.Now().In(s.registry.Location())
	correlationID := uuid.NewString()

	if !s.cfg.TradingDays.Contains(now.Weekday()) {
		// Weekend/holiday short-circuit: the whole system is off before any
		// per-session logic runs.
		for _, sess := range s.registry.List() {
			s.disableAgents(ctx, sess.ID)
		}
		observ.IncCounter("scheduler_offday_ticks_total", nil)
		return
	}

	for _, sess := range s.registry.List() {
		if !sess.Active {
			s.disableAgents(ctx, sess.ID)
			continue
		}
		s.evaluateSession(ctx, now, sess, correlationID)
	}

	if s.handoff != nil {
		s.handoff.Evaluate(ctx, now, correlationID)
	}

	observ.ObserveDuration("scheduler_tick", time.Since(start), nil)
	observ.IncCounter("scheduler_ticks_total", nil)
}

// evaluateSession resolves one session's phase and applies its side
// effects. A collaborator failure here affects this session only.
func (s *Scheduler) evaluateSession(ctx context.Context, now time.Time, sess sessions.Session, correlationID string) {
	phase := s.resolvePhase(ctx, now, sess)

	if phase == sessions.PhaseOpen {
		s.budgets.SetBudget(sess.ID, sess.MaxGrossExposurePct, sess.MaxOrderNotional)
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		err := s.agents.EnableAgents(callCtx, sess.ID)
		cancel()
		if err != nil {
			observ.Warn("agent_enable_failed", map[string]any{"session": sess.ID, "error": err.Error()})
			observ.IncCounter("agent_command_errors_total", map[string]string{"command": "enable"})
		}
	} else {
		s.disableAgents(ctx, sess.ID)
	}

	// Emitted every tick whether or not the phase changed; consumers diff.
	ev := events.NewEnvelope(events.TypeSessionStatus, correlationID, events.SessionStatus{
		SessionID: sess.ID,
		Phase:     phase,
		Universe:  sess.Universe,
		Timestamp: now,
	})
	pubCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	if err := s.pub.Publish(pubCtx, ev); err != nil {
		observ.Warn("event_publish_failed", map[string]any{"session": sess.ID, "error": err.Error()})
	}
	cancel()

	observ.IncCounter("session_phase_evaluations_total",
		map[string]string{"session": sess.ID, "phase": string(phase)})
}

// resolvePhase computes the session phase, querying exchange status only
// when the time window is satisfied. Any status failure resolves the
// session conservatively to CLOSED_EXCHANGE for this tick.
func (s *Scheduler) resolvePhase(ctx context.Context, now time.Time, sess sessions.Session) sessions.Phase {
	if !sessions.InWindow(now, sess) {
		return sessions.PhaseOutOfWindow
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	inAuction := false
	if sess.SkipAuctions {
		var err error
		inAuction, err = s.calendar.IsInAuction(callCtx, sess.Exchanges)
		if err != nil {
			observ.Warn("auction_status_unresolved", map[string]any{"session": sess.ID, "error": err.Error()})
			return sessions.PhaseClosedExchange
		}
	}

	open, err := s.calendar.IsExchangeOpen(callCtx, sess.Exchanges)
	if err != nil {
		observ.Warn("exchange_status_unresolved", map[string]any{"session": sess.ID, "error": err.Error()})
		return sessions.PhaseClosedExchange
	}

	return sessions.EvaluatePhase(now, sess, open, inAuction)
}

func (s *Scheduler) disableAgents(ctx context.Context, sessionID string) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	if err := s.agents.DisableAgents(callCtx, sessionID); err != nil {
		observ.Warn("agent_disable_failed", map[string]any{"session": sessionID, "error": err.Error()})
		observ.IncCounter("agent_command_errors_total", map[string]string{"command": "disable"})
	}
}
