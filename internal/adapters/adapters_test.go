package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopOfBook_Derived(t *testing.T) {
	book := &TopOfBook{Symbol: "AAPL", Bid: 99.95, Ask: 100.05, BidSize: 600, AskSize: 400}
	assert.InDelta(t, 100.0, book.Mid(), 1e-9)
	assert.InDelta(t, 10.0, book.SpreadBps(), 0.01)
	assert.Equal(t, int64(1000), book.TotalDepth())
}

func TestValidateTopOfBook(t *testing.T) {
	cases := []struct {
		name string
		book TopOfBook
		ok   bool
	}{
		{"valid", TopOfBook{Symbol: "aapl", Bid: 99.9, Ask: 100.1, BidSize: 10, AskSize: 10}, true},
		{"empty symbol", TopOfBook{Bid: 99.9, Ask: 100.1}, false},
		{"zero bid", TopOfBook{Symbol: "X", Bid: 0, Ask: 100.1}, false},
		{"crossed", TopOfBook{Symbol: "X", Bid: 100.2, Ask: 100.1}, false},
		{"negative size", TopOfBook{Symbol: "X", Bid: 99.9, Ask: 100.1, BidSize: -1}, false},
	}
	for _, c := range cases {
		book := c.book
		err := ValidateTopOfBook(&book)
		if c.ok {
			require.NoError(t, err, c.name)
			assert.Equal(t, "AAPL", book.Symbol, "symbol must be normalized")
		} else {
			require.Error(t, err, c.name)
		}
	}
}

func TestSimCalendar_TradingHours(t *testing.T) {
	cal := NewSimCalendar()
	ctx := context.Background()

	// 2026-08-26 is a Wednesday. 10:00 UTC = 11:00 Frankfurt: XETR open,
	// past the opening auction.
	cal.SetClock(func() time.Time { return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) })
	open, err := cal.IsExchangeOpen(ctx, []string{"XETR"})
	require.NoError(t, err)
	assert.True(t, open, "XETR should be open mid-morning")

	// Same instant: 05:00 New York, XNYS closed.
	open, err = cal.IsExchangeOpen(ctx, []string{"XNYS"})
	require.NoError(t, err)
	assert.False(t, open)

	// Mixed set: all must be open.
	open, err = cal.IsExchangeOpen(ctx, []string{"XETR", "XNYS"})
	require.NoError(t, err)
	assert.False(t, open)

	// 08:02 UTC = 09:02 Frankfurt: inside the opening auction.
	cal.SetClock(func() time.Time { return time.Date(2026, 8, 26, 8, 2, 0, 0, time.UTC) })
	auction, err := cal.IsInAuction(ctx, []string{"XETR"})
	require.NoError(t, err)
	assert.True(t, auction)
	open, err = cal.IsExchangeOpen(ctx, []string{"XETR"})
	require.NoError(t, err)
	assert.False(t, open, "auction is not continuous trading")

	// Saturday: closed everywhere.
	cal.SetClock(func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) })
	open, err = cal.IsExchangeOpen(ctx, []string{"XETR"})
	require.NoError(t, err)
	assert.False(t, open)
}

func TestSimCalendar_UnknownExchange(t *testing.T) {
	cal := NewSimCalendar()
	_, err := cal.IsExchangeOpen(context.Background(), []string{"XXXX"})
	require.Error(t, err)
	assert.False(t, cal.Known("XXXX"))
	assert.True(t, cal.Known("XNYS"))
}

func TestSimMarketData_ProducesValidBooks(t *testing.T) {
	md := NewSimMarketData()
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		book, err := md.GetTopOfBook(ctx, "AAPL")
		require.NoError(t, err)
		require.NoError(t, ValidateTopOfBook(book))
		assert.Greater(t, book.SpreadBps(), 0.0)
	}
	lat, err := md.GetRecentLatency(ctx, "l1")
	require.NoError(t, err)
	assert.Greater(t, lat, time.Duration(0))
}

func TestProviderHealth_Transitions(t *testing.T) {
	h := NewProviderHealth("test")
	assert.Equal(t, ProviderHealthy, h.Status())

	err := assert.AnError
	h.RecordFailure(err)
	h.RecordFailure(err)
	assert.Equal(t, ProviderDegraded, h.Status())

	for i := 0; i < 3; i++ {
		h.RecordFailure(err)
	}
	assert.Equal(t, ProviderFailed, h.Status())

	h.RecordSuccess(10 * time.Millisecond)
	assert.Equal(t, ProviderHealthy, h.Status())
}
