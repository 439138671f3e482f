package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// simExchange is a fixed UTC-offset trading-hours heuristic for one
// exchange: no holiday calendar, continuous trading between open and close
// with an opening auction of a few minutes. Good enough to drive the
// orchestrator without a live calendar backend.
type simExchange struct {
	utcOffset      time.Duration
	openMinute     int // exchange-local minutes since midnight
	closeMinute    int
	auctionMinutes int // opening auction length
}

var defaultSimExchanges = map[string]simExchange{
	"XNYS": {utcOffset: -5 * time.Hour, openMinute: 9*60 + 30, closeMinute: 16 * 60, auctionMinutes: 5},
	"XNAS": {utcOffset: -5 * time.Hour, openMinute: 9*60 + 30, closeMinute: 16 * 60, auctionMinutes: 5},
	"XLON": {utcOffset: 0, openMinute: 8 * 60, closeMinute: 16*60 + 30, auctionMinutes: 10},
	"XETR": {utcOffset: 1 * time.Hour, openMinute: 9 * 60, closeMinute: 17*60 + 30, auctionMinutes: 10},
	"XPAR": {utcOffset: 1 * time.Hour, openMinute: 9 * 60, closeMinute: 17*60 + 30, auctionMinutes: 10},
	"XTKS": {utcOffset: 9 * time.Hour, openMinute: 9 * 60, closeMinute: 15 * 60, auctionMinutes: 8},
	"XHKG": {utcOffset: 8 * time.Hour, openMinute: 9*60 + 30, closeMinute: 16 * 60, auctionMinutes: 10},
}

// SimCalendar is a simulated exchange calendar driven by wall-clock time and
// fixed UTC offsets. Weekends are closed; holidays are not modeled.
type SimCalendar struct {
	exchanges map[string]simExchange
	now       func() time.Time
}

// NewSimCalendar builds a calendar for the default exchange set.
func NewSimCalendar() *SimCalendar {
	return &SimCalendar{exchanges: defaultSimExchanges, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (c *SimCalendar) SetClock(now func() time.Time) { c.now = now }

// Known reports whether the calendar models the exchange. Used for
// load-time registry validation.
func (c *SimCalendar) Known(exchange string) bool {
	_, ok := c.exchanges[exchange]
	return ok
}

func (c *SimCalendar) status(exchange string) (open, auction bool, err error) {
	ex, ok := c.exchanges[exchange]
	if !ok {
		return false, false, fmt.Errorf("unknown exchange %q", exchange)
	}
	local := c.now().UTC().Add(ex.utcOffset)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, false, nil
	}
	minute := local.Hour()*60 + local.Minute()
	if minute < ex.openMinute || minute >= ex.closeMinute {
		return false, false, nil
	}
	if minute < ex.openMinute+ex.auctionMinutes {
		return false, true, nil
	}
	return true, false, nil
}

func (c *SimCalendar) IsExchangeOpen(ctx context.Context, exchanges []string) (bool, error) {
	if len(exchanges) == 0 {
		return false, fmt.Errorf("empty exchange set")
	}
	for _, name := range exchanges {
		open, _, err := c.status(name)
		if err != nil {
			return false, err
		}
		if !open {
			return false, nil
		}
	}
	return true, nil
}

func (c *SimCalendar) IsInAuction(ctx context.Context, exchanges []string) (bool, error) {
	for _, name := range exchanges {
		_, auction, err := c.status(name)
		if err != nil {
			return false, err
		}
		if auction {
			return true, nil
		}
	}
	return false, nil
}

// SimMarketData generates plausible top-of-book snapshots around fixed base
// prices with a spread drawn from a small range, plus a jittered feed
// latency. Deterministic enough for demos, not for assertions.
type SimMarketData struct {
	mu     sync.Mutex
	bases  map[string]float64
	random *rand.Rand
}

func NewSimMarketData() *SimMarketData {
	return &SimMarketData{
		bases: map[string]float64{
			"AAPL": 206.80,
			"NVDA": 450.00,
			"SAP":  182.40,
			"ASML": 642.10,
			"7203": 2450.0, // Toyota
		},
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SimMarketData) GetTopOfBook(ctx context.Context, symbol string) (*TopOfBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base, ok := s.bases[symbol]
	if !ok {
		// Unknown symbols still get a book so ad-hoc gate checks work.
		base = 100.0
	}
	mid := base * (1 + (s.random.Float64()-0.5)*0.01)
	halfSpread := mid * (2 + s.random.Float64()*8) / 10000 / 2 // 2-10 bps
	book := &TopOfBook{
		Symbol:    symbol,
		Bid:       mid - halfSpread,
		Ask:       mid + halfSpread,
		BidSize:   300 + s.random.Int63n(1500),
		AskSize:   300 + s.random.Int63n(1500),
		Timestamp: time.Now(),
		Source:    "sim",
	}
	return book, nil
}

func (s *SimMarketData) GetRecentLatency(ctx context.Context, channel string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(40+s.random.Intn(200)) * time.Millisecond, nil
}
