package risk

import (
	"strings"
	"sync"
	"time"

	"github.com/tradeops/session-orchestrator/internal/observ"
)

// Budget is the live risk envelope for one session. The target can sit
// below the session's static ceiling during a handoff ramp-down.
type Budget struct {
	SessionID              string    `json:"session_id"`
	TargetGrossExposurePct float64   `json:"target_gross_exposure_pct"`
	MaxOrderNotional       float64   `json:"max_order_notional"`
	LastUpdated            time.Time `json:"last_updated"`
}

// Zero reports whether the budget permits no trading.
func (b Budget) Zero() bool { return b.TargetGrossExposurePct <= 0 }

type budgetEntry struct {
	budget     Budget
	ceilingPct float64 // static session cap; scaling never exceeds this
}

// BudgetController holds per-session live risk parameters. The scheduler
// writes absolute targets when a session opens; the handoff coordinator
// applies relative ramp-downs. Order-sizing code reads. The controller is a
// source of truth for per-session values only: the global gross-exposure
// sum is the consumer's invariant to enforce.
type BudgetController struct {
	mu      sync.RWMutex
	budgets map[string]budgetEntry
	now     func() time.Time
}

// NewBudgetController creates an empty controller. Budgets appear lazily on
// the first SetBudget for a session and are overwritten, never deleted.
func NewBudgetController() *BudgetController {
	return &BudgetController{
		budgets: make(map[string]budgetEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (c *BudgetController) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SetBudget unconditionally overwrites the session's budget with the given
// absolute values. This is the scheduler's authority when a session opens;
// it also resets the ceiling any later ScaleBudget clamps against.
func (c *BudgetController) SetBudget(sessionID string, grossExposurePct, maxOrderNotional float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.budgets[sessionID] = budgetEntry{
		budget: Budget{
			SessionID:              sessionID,
			TargetGrossExposurePct: grossExposurePct,
			MaxOrderNotional:       maxOrderNotional,
			LastUpdated:            c.now(),
		},
		ceilingPct: grossExposurePct,
	}
	observ.SetGauge("risk_target_gross_exposure_pct", grossExposurePct,
		map[string]string{"session": sessionID})
}

// ScaleBudget multiplies the current exposure target of every session whose
// id has the given prefix by factor. It is a ramp-down primitive: factor is
// clamped into [0,1], the result never exceeds the session's static ceiling
// and never goes below zero. Returns the number of sessions touched.
func (c *BudgetController) ScaleBudget(scopePrefix string, factor float64) int {
	if factor > 1 || factor < 0 {
		observ.IncCounter("risk_scale_factor_clamped_total", map[string]string{"scope": scopePrefix})
		if factor > 1 {
			factor = 1
		} else {
			factor = 0
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	touched := 0
	for id, e := range c.budgets {
		if !strings.HasPrefix(id, scopePrefix) {
			continue
		}
		target := e.budget.TargetGrossExposurePct * factor
		if target > e.ceilingPct {
			target = e.ceilingPct
		}
		if target < 0 {
			target = 0
		}
		e.budget.TargetGrossExposurePct = target
		e.budget.LastUpdated = c.now()
		c.budgets[id] = e
		touched++
		observ.SetGauge("risk_target_gross_exposure_pct", target,
			map[string]string{"session": id})
	}
	return touched
}

// GetBudget returns the session's current budget. A session that has never
// been set gets the zero budget: no trading permitted, not an error.
func (c *BudgetController) GetBudget(sessionID string) Budget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.budgets[sessionID]; ok {
		return e.budget
	}
	return Budget{SessionID: sessionID}
}

// Snapshot returns a copy of all known budgets, keyed by session id.
func (c *BudgetController) Snapshot() map[string]Budget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Budget, len(c.budgets))
	for id, e := range c.budgets {
		out[id] = e.budget
	}
	return out
}
