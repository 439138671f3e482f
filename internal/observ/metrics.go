package observ

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// In-process metrics registry. Deliberately not Prometheus exposition
// format; the JSON dump handler is enough for dashboards and tests.
type registry struct {
	mu       sync.RWMutex
	counters map[string]map[string]int64
	gauges   map[string]map[string]float64
	hist     map[string]map[string][]float64
}

var reg = &registry{
	counters: map[string]map[string]int64{},
	gauges:   map[string]map[string]float64{},
	hist:     map[string]map[string][]float64{},
}

// labelKey canonicalizes a label map so key order is stable.
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}

func IncCounter(name string, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m := reg.counters[name]
	if m == nil {
		m = map[string]int64{}
		reg.counters[name] = m
	}
	m[labelKey(labels)]++
}

func SetGauge(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m := reg.gauges[name]
	if m == nil {
		m = map[string]float64{}
		reg.gauges[name] = m
	}
	m[labelKey(labels)] = value
}

func Observe(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m := reg.hist[name]
	if m == nil {
		m = map[string][]float64{}
		reg.hist[name] = m
	}
	k := labelKey(labels)
	m[k] = append(m[k], value)
}

// ObserveDuration records a duration in milliseconds under name+"_ms".
func ObserveDuration(name string, d time.Duration, labels map[string]string) {
	Observe(name+"_ms", float64(d.Milliseconds()), labels)
}

// CounterValue returns the current value of a counter for the given labels.
// Zero if never incremented. Intended for tests.
func CounterValue(name string, labels map[string]string) int64 {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.counters[name][labelKey(labels)]
}

// GaugeValue returns the current value of a gauge for the given labels.
func GaugeValue(name string, labels map[string]string) float64 {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.gauges[name][labelKey(labels)]
}

// Handler exposes the registry as a JSON dump for quick inspection.
func Handler() http.Handler {
	type dump struct {
		Counters map[string]map[string]int64     `json:"counters"`
		Gauges   map[string]map[string]float64   `json:"gauges"`
		Hist     map[string]map[string][]float64 `json:"histograms"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.RLock()
		defer reg.mu.RUnlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dump{Counters: reg.counters, Gauges: reg.gauges, Hist: reg.hist})
	})
}
