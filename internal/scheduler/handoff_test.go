package scheduler

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/risk"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

func winddownRule() HandoffRule {
	return HandoffRule{
		Name:   "eu_winddown",
		At:     sessions.TimeOfDay{Hour: 15, Minute: 15},
		Action: ActionRestrictEntries,
		Scope:  "EU_",
		Factor: 0.70,
	}
}

func flattenRule() HandoffRule {
	return HandoffRule{
		Name:   "eu_flatten",
		At:     sessions.TimeOfDay{Hour: 15, Minute: 40},
		Action: ActionFlattenIntraday,
		Scope:  "EU_",
	}
}

func newCoordinator(t *testing.T, rules ...HandoffRule) (*HandoffCoordinator, *adapters.RecordingOrderControl, *risk.BudgetController) {
	t.Helper()
	orders := &adapters.RecordingOrderControl{}
	budgets := risk.NewBudgetController()
	c, err := NewHandoffCoordinator(rules, orders, budgets, nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return c, orders, budgets
}

func at(day, hour, minute, second int) time.Time {
	return time.Date(2026, 8, day, hour, minute, second, 0, time.UTC)
}

func TestHandoff_RestrictEntriesScalesBudget(t *testing.T) {
	c, orders, budgets := newCoordinator(t, winddownRule())
	budgets.SetBudget("EU_MORNING", 0.40, 250000)

	c.Evaluate(context.Background(), at(26, 15, 15, 3), "corr")

	restricted, _ := orders.Calls()
	if len(restricted) != 1 || restricted[0] != "EU_" {
		t.Fatalf("want RestrictEntries(EU_), got %v", restricted)
	}
	got := budgets.GetBudget("EU_MORNING").TargetGrossExposurePct
	if math.Abs(got-0.28) > 1e-9 {
		t.Fatalf("budget not ramped: want 0.28, got %f", got)
	}
}

func TestHandoff_FlattenIntraday(t *testing.T) {
	c, orders, _ := newCoordinator(t, flattenRule())
	c.Evaluate(context.Background(), at(26, 15, 40, 0), "corr")
	_, flattened := orders.Calls()
	if len(flattened) != 1 || flattened[0] != "EU_" {
		t.Fatalf("want FlattenIntraday(EU_), got %v", flattened)
	}
}

func TestHandoff_AtMostOncePerDay(t *testing.T) {
	c, orders, budgets := newCoordinator(t, winddownRule())
	budgets.SetBudget("EU_MORNING", 1.0, 1)

	// Several ticks inside the same matching minute: the date guard, not
	// the tick spacing, keeps this to one firing.
	c.Evaluate(context.Background(), at(26, 15, 15, 0), "t1")
	c.Evaluate(context.Background(), at(26, 15, 15, 15), "t2")
	c.Evaluate(context.Background(), at(26, 15, 15, 45), "t3")

	restricted, _ := orders.Calls()
	if len(restricted) != 1 {
		t.Fatalf("rule fired %d times within one day", len(restricted))
	}
	got := budgets.GetBudget("EU_MORNING").TargetGrossExposurePct
	if math.Abs(got-0.70) > 1e-9 {
		t.Fatalf("ramp-down applied more than once: %f", got)
	}
}

func TestHandoff_FiresAgainNextDay(t *testing.T) {
	c, orders, _ := newCoordinator(t, winddownRule())

	c.Evaluate(context.Background(), at(26, 15, 15, 0), "d1")
	c.Evaluate(context.Background(), at(27, 15, 15, 0), "d2")

	restricted, _ := orders.Calls()
	if len(restricted) != 2 {
		t.Fatalf("rule must fire once per day, got %d firings over two days", len(restricted))
	}
}

func TestHandoff_NoFireOutsideMinute(t *testing.T) {
	c, orders, _ := newCoordinator(t, winddownRule())

	c.Evaluate(context.Background(), at(26, 15, 14, 59), "before")
	c.Evaluate(context.Background(), at(26, 15, 16, 0), "after")

	if restricted, _ := orders.Calls(); len(restricted) != 0 {
		t.Fatalf("rule fired outside its minute: %v", restricted)
	}
}

func TestHandoff_FailureNotRetriedSameDay(t *testing.T) {
	orders := &adapters.RecordingOrderControl{Err: errors.New("portfolio service down")}
	budgets := risk.NewBudgetController()
	budgets.SetBudget("EU_MORNING", 1.0, 1)
	c, err := NewHandoffCoordinator([]HandoffRule{winddownRule()}, orders, budgets, nil, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	c.Evaluate(context.Background(), at(26, 15, 15, 0), "t1")
	orders.Err = nil
	c.Evaluate(context.Background(), at(26, 15, 15, 30), "t2")

	// The failed firing consumed today's slot; retry waits for tomorrow.
	if restricted, _ := orders.Calls(); len(restricted) != 0 {
		t.Fatalf("failed rule must not retry mid-day, got %v", restricted)
	}
	// The budget ramp still happened: the safer half of the rule is not
	// rolled back on collaborator failure.
	got := budgets.GetBudget("EU_MORNING").TargetGrossExposurePct
	if math.Abs(got-0.70) > 1e-9 {
		t.Fatalf("budget ramp skipped on failure: %f", got)
	}
}

func TestNewHandoffCoordinator_RejectsBadRules(t *testing.T) {
	orders := &adapters.RecordingOrderControl{}
	budgets := risk.NewBudgetController()

	bad := []HandoffRule{
		{Name: "no_scope", At: sessions.TimeOfDay{Hour: 10, Minute: 0}, Action: ActionFlattenIntraday},
		{Name: "bad_factor", At: sessions.TimeOfDay{Hour: 10, Minute: 0}, Action: ActionRestrictEntries, Scope: "EU_", Factor: 1.5},
		{Name: "bad_action", At: sessions.TimeOfDay{Hour: 10, Minute: 0}, Action: "liquidate_everything", Scope: "EU_"},
	}
	for _, r := range bad {
		if _, err := NewHandoffCoordinator([]HandoffRule{r}, orders, budgets, nil, time.Second); err == nil {
			t.Fatalf("rule %q must be rejected at load time", r.Name)
		}
	}
}
