package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/events"
	"github.com/tradeops/session-orchestrator/internal/observ"
	"github.com/tradeops/session-orchestrator/internal/risk"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

// HandoffAction names what a rule does when its minute arrives.
type HandoffAction string

const (
	// ActionRestrictEntries blocks new positions for the scope and ramps its
	// exposure target down by the rule's factor.
	ActionRestrictEntries HandoffAction = "restrict_entries"
	// ActionFlattenIntraday force-closes the scope's same-day positions.
	// This is the hard boundary: no dual-region exposure accumulates across
	// a handoff.
	ActionFlattenIntraday HandoffAction = "flatten_intraday"
)

// HandoffRule is one (minute-of-day, action) entry in the fixed handoff
// table. Scope is a session-id prefix such as a region.
type HandoffRule struct {
	Name   string
	At     sessions.TimeOfDay
	Action HandoffAction
	Scope  string
	Factor float64 // ramp-down factor, restrict_entries only
}

// HandoffCoordinator evaluates the rule table on every scheduler tick.
// Each rule fires at most once per calendar day: the guard is an explicit
// last-fired date per rule, not the tick spacing, so shortening the tick
// interval below a minute cannot re-trigger a rule.
type HandoffCoordinator struct {
	mu        sync.Mutex
	rules     []HandoffRule
	lastFired []string // civil date per rule, master TZ

	orders  adapters.OrderControl
	budgets *risk.BudgetController
	pub     events.Publisher
	timeout time.Duration
}

// NewHandoffCoordinator validates the rule table. Malformed rules are a
// configuration error and must stop startup.
func NewHandoffCoordinator(
	rules []HandoffRule,
	orders adapters.OrderControl,
	budgets *risk.BudgetController,
	pub events.Publisher,
	callTimeout time.Duration,
) (*HandoffCoordinator, error) {
	for i, r := range rules {
		if r.Scope == "" {
			return nil, fmt.Errorf("handoff rule %d (%s): empty scope", i, r.Name)
		}
		switch r.Action {
		case ActionRestrictEntries:
			if r.Factor <= 0 || r.Factor > 1 {
				return nil, fmt.Errorf("handoff rule %d (%s): factor %.3f outside (0,1]", i, r.Name, r.Factor)
			}
		case ActionFlattenIntraday:
		default:
			return nil, fmt.Errorf("handoff rule %d (%s): unknown action %q", i, r.Name, r.Action)
		}
	}
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &HandoffCoordinator{
		rules:     rules,
		lastFired: make([]string, len(rules)),
		orders:    orders,
		budgets:   budgets,
		pub:       pub,
		timeout:   callTimeout,
	}, nil
}

// Evaluate fires every rule whose minute matches now and which has not
// fired today. A failed action is reported and counts as fired: it is
// retried on the next qualifying day, not mid-day.
func (c *HandoffCoordinator) Evaluate(ctx context.Context, now time.Time, correlationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	minute := now.Hour()*60 + now.Minute()
	today := now.Format("2006-01-02")

	for i, rule := range c.rules {
		if rule.At.MinuteOfDay() != minute || c.lastFired[i] == today {
			continue
		}
		c.lastFired[i] = today
		err := c.fire(ctx, rule)
		succeeded := err == nil
		if err != nil {
			observ.Warn("handoff_rule_failed", map[string]any{
				"rule": rule.Name, "action": string(rule.Action), "scope": rule.Scope, "error": err.Error(),
			})
			observ.IncCounter("handoff_failures_total", map[string]string{"rule": rule.Name})
		}
		observ.IncCounter("handoff_fired_total",
			map[string]string{"rule": rule.Name, "action": string(rule.Action)})

		ev := events.NewEnvelope(events.TypeHandoff, correlationID, events.Handoff{
			Rule:      rule.Name,
			Action:    string(rule.Action),
			Scope:     rule.Scope,
			Factor:    rule.Factor,
			Succeeded: succeeded,
			Timestamp: now,
		})
		pubCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if perr := c.pub.Publish(pubCtx, ev); perr != nil {
			observ.Warn("event_publish_failed", map[string]any{"rule": rule.Name, "error": perr.Error()})
		}
		cancel()
	}
}

func (c *HandoffCoordinator) fire(ctx context.Context, rule HandoffRule) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch rule.Action {
	case ActionRestrictEntries:
		// Budget ramp-down happens even if the order collaborator fails:
		// shrinking exposure is the safer half of the rule.
		c.budgets.ScaleBudget(rule.Scope, rule.Factor)
		return c.orders.RestrictEntries(callCtx, rule.Scope)
	case ActionFlattenIntraday:
		return c.orders.FlattenIntraday(callCtx, rule.Scope)
	}
	return fmt.Errorf("unknown action %q", rule.Action)
}
