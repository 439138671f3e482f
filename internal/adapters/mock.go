package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCalendar is a deterministic exchange calendar for tests. Open and
// auction status are set per exchange; errors can be injected per exchange
// to exercise conservative fallbacks.
type MockCalendar struct {
	mu      sync.RWMutex
	open    map[string]bool
	auction map[string]bool
	fail    map[string]error
}

func NewMockCalendar() *MockCalendar {
	return &MockCalendar{
		open:    map[string]bool{},
		auction: map[string]bool{},
		fail:    map[string]error{},
	}
}

func (m *MockCalendar) SetOpen(exchange string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[exchange] = open
}

func (m *MockCalendar) SetAuction(exchange string, auction bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auction[exchange] = auction
}

func (m *MockCalendar) FailExchange(exchange string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[exchange] = err
}

func (m *MockCalendar) IsExchangeOpen(ctx context.Context, exchanges []string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ex := range exchanges {
		if err := m.fail[ex]; err != nil {
			return false, err
		}
		if !m.open[ex] {
			return false, nil
		}
	}
	return len(exchanges) > 0, nil
}

func (m *MockCalendar) IsInAuction(ctx context.Context, exchanges []string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ex := range exchanges {
		if err := m.fail[ex]; err != nil {
			return false, err
		}
		if m.auction[ex] {
			return true, nil
		}
	}
	return false, nil
}

// MockMarketData serves fixed top-of-book snapshots and latency readings.
type MockMarketData struct {
	mu      sync.RWMutex
	books   map[string]*TopOfBook
	latency map[string]time.Duration
	bookErr error
	latErr  error
}

func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		books:   map[string]*TopOfBook{},
		latency: map[string]time.Duration{},
	}
}

func (m *MockMarketData) SetBook(symbol string, book TopOfBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book.Symbol = symbol
	m.books[symbol] = &book
}

func (m *MockMarketData) SetLatency(channel string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency[channel] = d
}

func (m *MockMarketData) FailBooks(err error)   { m.mu.Lock(); m.bookErr = err; m.mu.Unlock() }
func (m *MockMarketData) FailLatency(err error) { m.mu.Lock(); m.latErr = err; m.mu.Unlock() }

func (m *MockMarketData) GetTopOfBook(ctx context.Context, symbol string) (*TopOfBook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.bookErr != nil {
		return nil, m.bookErr
	}
	book, ok := m.books[symbol]
	if !ok {
		return nil, fmt.Errorf("no book for %s", symbol)
	}
	cp := *book
	return &cp, nil
}

func (m *MockMarketData) GetRecentLatency(ctx context.Context, channel string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latErr != nil {
		return 0, m.latErr
	}
	d, ok := m.latency[channel]
	if !ok {
		return 0, fmt.Errorf("no latency reading for channel %s", channel)
	}
	return d, nil
}

// RecordingAgentControl records enable/disable calls in order. Safe for
// concurrent use.
type RecordingAgentControl struct {
	mu       sync.Mutex
	Enabled  []string
	Disabled []string
	Err      error
}

func (r *RecordingAgentControl) EnableAgents(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Enabled = append(r.Enabled, sessionID)
	return nil
}

func (r *RecordingAgentControl) DisableAgents(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Disabled = append(r.Disabled, sessionID)
	return nil
}

// Calls returns copies of the recorded call lists.
func (r *RecordingAgentControl) Calls() (enabled, disabled []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Enabled...), append([]string(nil), r.Disabled...)
}

// RecordingOrderControl records restrict/flatten calls by scope.
type RecordingOrderControl struct {
	mu         sync.Mutex
	Restricted []string
	Flattened  []string
	Err        error
}

func (r *RecordingOrderControl) RestrictEntries(ctx context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Restricted = append(r.Restricted, scope)
	return nil
}

func (r *RecordingOrderControl) FlattenIntraday(ctx context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Flattened = append(r.Flattened, scope)
	return nil
}

// Calls returns copies of the recorded call lists.
func (r *RecordingOrderControl) Calls() (restricted, flattened []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Restricted...), append([]string(nil), r.Flattened...)
}
