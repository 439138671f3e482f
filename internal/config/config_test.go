package config

import (
	"testing"
	"time"

	"github.com/tradeops/session-orchestrator/internal/scheduler"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

func loadFixture(t *testing.T) Root {
	t.Helper()
	cfg, err := Load("testdata/orchestrator.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFixture(t)
	if cfg.Scheduler.TickIntervalMs != 15000 {
		t.Fatalf("default tick interval: want 15000, got %d", cfg.Scheduler.TickIntervalMs)
	}
	if cfg.Gate.MaxSpreadBps != 12.0 || cfg.Gate.MinTotalDepth != 500 || cfg.Gate.MaxLatencyMs != 800 {
		t.Fatalf("default gate thresholds wrong: %+v", cfg.Gate)
	}
	if cfg.MarketData.Source != "sim" {
		t.Fatalf("default market data source: want sim, got %s", cfg.MarketData.Source)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := loadFixture(t)
	reg, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("want 2 sessions, got %d", reg.Len())
	}

	eu, ok := reg.Get("EU_MORNING")
	if !ok {
		t.Fatal("EU_MORNING missing")
	}
	if eu.WindowStart != (sessions.TimeOfDay{Hour: 8, Minute: 5}) || eu.WindowEnd != (sessions.TimeOfDay{Hour: 11, Minute: 30}) {
		t.Fatalf("window wrong: %s-%s", eu.WindowStart, eu.WindowEnd)
	}
	if !eu.Active || !eu.SkipAuctions || eu.Cooldown != 2*time.Minute {
		t.Fatalf("EU_MORNING fields wrong: %+v", eu)
	}
	// No weekdays listed defaults to Mon-Fri.
	if !eu.Weekdays.Contains(time.Friday) || eu.Weekdays.Contains(time.Saturday) {
		t.Fatal("default weekday mask wrong")
	}

	us, _ := reg.Get("US_CORE")
	if us.Active {
		t.Fatal("US_CORE configured inactive")
	}
	if us.Weekdays.Contains(time.Friday) {
		t.Fatal("explicit weekday mask ignored")
	}
}

func TestBuildHandoffRules(t *testing.T) {
	cfg := loadFixture(t)
	rules, err := cfg.BuildHandoffRules()
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 {
		t.Fatalf("want 2 rules, got %d", len(rules))
	}
	if rules[0].Action != scheduler.ActionRestrictEntries || rules[0].Factor != 0.70 {
		t.Fatalf("winddown rule wrong: %+v", rules[0])
	}
	if rules[1].Action != scheduler.ActionFlattenIntraday || rules[1].At != (sessions.TimeOfDay{Hour: 15, Minute: 40}) {
		t.Fatalf("flatten rule wrong: %+v", rules[1])
	}
}

func TestSchedulerConfig(t *testing.T) {
	cfg := loadFixture(t)
	sc, err := cfg.SchedulerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.TickInterval != 15*time.Second || sc.CallTimeout != 5*time.Second {
		t.Fatalf("scheduler config wrong: %+v", sc)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("testdata/nope.yaml"); err == nil {
		t.Fatal("missing file must error")
	}
}

func TestBuildRegistry_BadWindowIsFatal(t *testing.T) {
	cfg := loadFixture(t)
	cfg.Sessions[0].WindowStart = "12:00"
	cfg.Sessions[0].WindowEnd = "09:00"
	if _, err := cfg.BuildRegistry(); err == nil {
		t.Fatal("inverted window must fail at build time")
	}
}
