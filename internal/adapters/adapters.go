package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExchangeCalendar resolves open/auction status for a set of exchanges.
// Holiday and calendar data live behind this interface; the orchestrator
// depends on it but does not implement it.
type ExchangeCalendar interface {
	// IsExchangeOpen reports whether every exchange in the set is currently
	// open for continuous trading.
	IsExchangeOpen(ctx context.Context, exchanges []string) (bool, error)
	// IsInAuction reports whether any exchange in the set is currently in an
	// auction phase.
	IsInAuction(ctx context.Context, exchanges []string) (bool, error)
}

// MarketData supplies live top-of-book and data-path latency. Implementations
// must tolerate concurrent reads; the pre-trade guard calls them out-of-band
// with scheduler ticks.
type MarketData interface {
	GetTopOfBook(ctx context.Context, symbol string) (*TopOfBook, error)
	// GetRecentLatency returns the most recent data-path latency observed on
	// the named feed channel.
	GetRecentLatency(ctx context.Context, channel string) (time.Duration, error)
}

// AgentControl enables and disables the trading agents bound to a session.
// Both calls must be idempotent on the far side: enabling an enabled session
// is a no-op.
type AgentControl interface {
	EnableAgents(ctx context.Context, sessionID string) error
	DisableAgents(ctx context.Context, sessionID string) error
}

// OrderControl is the order/portfolio collaborator the handoff coordinator
// drives. Scope is a session-id prefix (e.g. a region prefix).
type OrderControl interface {
	// RestrictEntries blocks new-position order attempts for matching
	// sessions; exits remain allowed.
	RestrictEntries(ctx context.Context, scope string) error
	// FlattenIntraday closes all same-day-opened positions for matching
	// sessions regardless of current P&L.
	FlattenIntraday(ctx context.Context, scope string) error
}

// TopOfBook is a normalized best bid/ask snapshot.
type TopOfBook struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidSize   int64     `json:"bid_size"`
	AskSize   int64     `json:"ask_size"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Mid returns the quote midpoint.
func (t *TopOfBook) Mid() float64 { return (t.Bid + t.Ask) / 2 }

// SpreadBps returns the relative bid/ask spread in basis points of the mid.
func (t *TopOfBook) SpreadBps() float64 {
	mid := t.Mid()
	if mid <= 0 {
		return 0
	}
	return (t.Ask - t.Bid) / mid * 10000
}

// TotalDepth returns combined displayed size at the top of book.
func (t *TopOfBook) TotalDepth() int64 { return t.BidSize + t.AskSize }

// ValidateTopOfBook rejects malformed snapshots fail-closed: a quote that
// fails validation must never reach an admission decision.
func ValidateTopOfBook(t *TopOfBook) error {
	if t == nil {
		return fmt.Errorf("top of book is nil")
	}
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if t.Bid <= 0 || t.Ask <= 0 {
		return fmt.Errorf("invalid prices: bid=%.4f ask=%.4f", t.Bid, t.Ask)
	}
	if t.Ask < t.Bid {
		return fmt.Errorf("crossed book: ask(%.4f) < bid(%.4f)", t.Ask, t.Bid)
	}
	if t.BidSize < 0 || t.AskSize < 0 {
		return fmt.Errorf("negative size: bid_size=%d ask_size=%d", t.BidSize, t.AskSize)
	}
	return nil
}
