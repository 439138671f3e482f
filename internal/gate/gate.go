// Package gate implements the pre-trade microstructure admission check.
// Every order attempt, whichever session initiated it, passes through here
// synchronously before submission.
package gate

import (
	"context"
	"time"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/observ"
)

// Reason classifies an admission decision. The first failing check in
// (spread, depth, latency) order determines the reason; simultaneous
// failures are not reported.
type Reason string

const (
	ReasonOK      Reason = "OK"
	ReasonSpread  Reason = "SPREAD"
	ReasonDepth   Reason = "DEPTH"
	ReasonLatency Reason = "LATENCY"
)

// Decision is the result of one admission check. Ephemeral: produced per
// call, never stored.
type Decision struct {
	Admit     bool          `json:"admit"`
	Reason    Reason        `json:"reason"`
	SpreadBps float64       `json:"spread_bps"`
	Depth     int64         `json:"depth"`
	Latency   time.Duration `json:"latency"`
}

// Config holds the admission thresholds.
type Config struct {
	// MaxSpreadBps rejects when the relative spread strictly exceeds this.
	MaxSpreadBps float64
	// MinTotalDepth rejects when bid+ask size is at or below this.
	MinTotalDepth int64
	// MaxFeedLatency rejects when the recent feed latency strictly exceeds this.
	MaxFeedLatency time.Duration
	// Channel names the feed whose latency is checked.
	Channel string
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxSpreadBps:   12.0,
		MinTotalDepth:  500,
		MaxFeedLatency: 800 * time.Millisecond,
		Channel:        "l1",
	}
}

// Guard is the stateless admission gate. It holds no mutable state and is
// safe for concurrent use; market data is fetched live on every call.
type Guard struct {
	md  adapters.MarketData
	cfg Config
}

func New(md adapters.MarketData, cfg Config) *Guard {
	return &Guard{md: md, cfg: cfg}
}

// PreTradeGuard runs the spread, depth and latency checks in that fixed
// order against call-time data. Collaborator failures degrade to a
// rejection carrying the reason of the check that could not be evaluated,
// never to an admit.
func (g *Guard) PreTradeGuard(ctx context.Context, symbol string) Decision {
	book, err := g.md.GetTopOfBook(ctx, symbol)
	if err == nil {
		err = adapters.ValidateTopOfBook(book)
	}
	if err != nil {
		observ.Warn("gate_book_unavailable", map[string]any{"symbol": symbol, "error": err.Error()})
		return g.reject(symbol, Decision{Reason: ReasonSpread})
	}

	d := Decision{
		SpreadBps: book.SpreadBps(),
		Depth:     book.TotalDepth(),
	}
	if d.SpreadBps > g.cfg.MaxSpreadBps {
		d.Reason = ReasonSpread
		return g.reject(symbol, d)
	}
	if d.Depth <= g.cfg.MinTotalDepth {
		d.Reason = ReasonDepth
		return g.reject(symbol, d)
	}

	latency, err := g.md.GetRecentLatency(ctx, g.cfg.Channel)
	if err != nil {
		observ.Warn("gate_latency_unavailable", map[string]any{"symbol": symbol, "error": err.Error()})
		d.Reason = ReasonLatency
		return g.reject(symbol, d)
	}
	d.Latency = latency
	if latency > g.cfg.MaxFeedLatency {
		d.Reason = ReasonLatency
		return g.reject(symbol, d)
	}

	d.Admit = true
	d.Reason = ReasonOK
	observ.IncCounter("gate_decisions_total", map[string]string{"reason": string(ReasonOK)})
	return d
}

func (g *Guard) reject(symbol string, d Decision) Decision {
	d.Admit = false
	observ.IncCounter("gate_decisions_total", map[string]string{"reason": string(d.Reason)})
	observ.IncCounter("gate_rejections_total", map[string]string{"symbol": symbol, "reason": string(d.Reason)})
	return d
}
