package adapters

import (
	"sync"
	"time"

	"github.com/tradeops/session-orchestrator/internal/observ"
)

// ProviderStatus is the coarse health state of an external data provider.
type ProviderStatus string

const (
	ProviderHealthy  ProviderStatus = "healthy"
	ProviderDegraded ProviderStatus = "degraded"
	ProviderFailed   ProviderStatus = "failed"
)

// ProviderHealth tracks success/failure streaks for one provider and maps
// them to a status. Consumers use it to decide whether live data is
// trustworthy; the gate itself stays fail-closed either way.
type ProviderHealth struct {
	mu                sync.Mutex
	name              string
	status            ProviderStatus
	lastSuccess       time.Time
	consecutiveErrors int

	degradedAfter int // consecutive errors before degraded
	failedAfter   int // consecutive errors before failed
}

func NewProviderHealth(name string) *ProviderHealth {
	return &ProviderHealth{
		name:          name,
		status:        ProviderHealthy,
		degradedAfter: 2,
		failedAfter:   5,
	}
}

// RecordSuccess resets the error streak and restores healthy status.
func (p *ProviderHealth) RecordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSuccess = time.Now()
	p.consecutiveErrors = 0
	if p.status != ProviderHealthy {
		observ.Log("provider_recovered", map[string]any{"provider": p.name})
	}
	p.status = ProviderHealthy
	observ.ObserveDuration("provider_call", latency, map[string]string{"provider": p.name})
}

// RecordFailure bumps the error streak and downgrades status at the
// configured thresholds.
func (p *ProviderHealth) RecordFailure(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutiveErrors++
	prev := p.status
	switch {
	case p.consecutiveErrors >= p.failedAfter:
		p.status = ProviderFailed
	case p.consecutiveErrors >= p.degradedAfter:
		p.status = ProviderDegraded
	}
	observ.IncCounter("provider_errors_total", map[string]string{"provider": p.name})
	if p.status != prev {
		observ.Warn("provider_status_changed", map[string]any{
			"provider": p.name, "from": string(prev), "to": string(p.status), "error": err.Error(),
		})
	}
}

// Status returns the current status.
func (p *ProviderHealth) Status() ProviderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
