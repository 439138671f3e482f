package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradeops/session-orchestrator/internal/adapters"
	"github.com/tradeops/session-orchestrator/internal/events"
	"github.com/tradeops/session-orchestrator/internal/gate"
	"github.com/tradeops/session-orchestrator/internal/scheduler"
	"github.com/tradeops/session-orchestrator/internal/sessions"
)

type SessionEntry struct {
	ID                  string   `yaml:"id"`
	Active              *bool    `yaml:"active"` // default true
	Weekdays            []string `yaml:"weekdays"`
	WindowStart         string   `yaml:"window_start"`
	WindowEnd           string   `yaml:"window_end"`
	Exchanges           []string `yaml:"exchanges"`
	Universe            string   `yaml:"universe"`
	MaxGrossExposurePct float64  `yaml:"max_gross_exposure_pct"`
	MaxOrderNotional    float64  `yaml:"max_order_notional"`
	CooldownSeconds     int      `yaml:"cooldown_seconds"`
	SkipAuctions        bool     `yaml:"skip_auctions"`
}

type HandoffEntry struct {
	Name   string  `yaml:"name"`
	At     string  `yaml:"at"` // "HH:MM" in the master time zone
	Action string  `yaml:"action"`
	Scope  string  `yaml:"scope"`
	Factor float64 `yaml:"factor"`
}

type Gate struct {
	MaxSpreadBps  float64 `yaml:"max_spread_bps"`
	MinTotalDepth int64   `yaml:"min_total_depth"`
	MaxLatencyMs  int     `yaml:"max_latency_ms"`
	Channel       string  `yaml:"channel"`
}

type Scheduler struct {
	TickIntervalMs int      `yaml:"tick_interval_ms"`
	CallTimeoutMs  int      `yaml:"call_timeout_ms"`
	TradingDays    []string `yaml:"trading_days"`
}

type MarketData struct {
	Source             string `yaml:"source"` // "sim" | "http"
	BaseURL            string `yaml:"base_url"`
	TimeoutMs          int    `yaml:"timeout_ms"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type Journal struct {
	Path string `yaml:"path"` // empty disables journaling
}

type Redis struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
	// Password comes from ORCHESTRATOR_REDIS_PASSWORD, never from the file.
}

type Root struct {
	Timezone    string         `yaml:"timezone"`
	MetricsAddr string         `yaml:"metrics_addr"`
	Scheduler   Scheduler      `yaml:"scheduler"`
	Gate        Gate           `yaml:"gate"`
	MarketData  MarketData     `yaml:"market_data"`
	Journal     Journal        `yaml:"journal"`
	Redis       Redis          `yaml:"redis"`
	Sessions    []SessionEntry `yaml:"sessions"`
	Handoff     []HandoffEntry `yaml:"handoff"`
}

// Load reads the YAML root and applies defaults. Structural validation of
// sessions and handoff rules happens in the builders, so every
// configuration error surfaces at startup, never at tick time.
func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}

	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9180"
	}
	if c.Scheduler.TickIntervalMs == 0 {
		c.Scheduler.TickIntervalMs = 15000
	}
	if c.Scheduler.CallTimeoutMs == 0 {
		c.Scheduler.CallTimeoutMs = 5000
	}
	if c.Gate.MaxSpreadBps == 0 {
		c.Gate.MaxSpreadBps = 12.0
	}
	if c.Gate.MinTotalDepth == 0 {
		c.Gate.MinTotalDepth = 500
	}
	if c.Gate.MaxLatencyMs == 0 {
		c.Gate.MaxLatencyMs = 800
	}
	if c.Gate.Channel == "" {
		c.Gate.Channel = "l1"
	}
	if c.MarketData.Source == "" {
		c.MarketData.Source = "sim"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	return c, nil
}

// Location resolves the master time zone.
func (c Root) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BuildRegistry translates the session entries into the immutable registry.
func (c Root) BuildRegistry() (*sessions.Registry, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	list := make([]sessions.Session, 0, len(c.Sessions))
	for _, e := range c.Sessions {
		start, err := sessions.ParseTimeOfDay(e.WindowStart)
		if err != nil {
			return nil, fmt.Errorf("session %q window_start: %w", e.ID, err)
		}
		end, err := sessions.ParseTimeOfDay(e.WindowEnd)
		if err != nil {
			return nil, fmt.Errorf("session %q window_end: %w", e.ID, err)
		}
		var days sessions.WeekdaySet
		if len(e.Weekdays) > 0 {
			days, err = sessions.ParseWeekdays(e.Weekdays)
			if err != nil {
				return nil, fmt.Errorf("session %q weekdays: %w", e.ID, err)
			}
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		list = append(list, sessions.Session{
			ID:                  e.ID,
			Active:              active,
			Weekdays:            days,
			WindowStart:         start,
			WindowEnd:           end,
			Exchanges:           e.Exchanges,
			Universe:            e.Universe,
			MaxGrossExposurePct: e.MaxGrossExposurePct,
			MaxOrderNotional:    e.MaxOrderNotional,
			Cooldown:            time.Duration(e.CooldownSeconds) * time.Second,
			SkipAuctions:        e.SkipAuctions,
		})
	}
	return sessions.NewRegistry(list, loc)
}

// BuildHandoffRules translates the handoff entries.
func (c Root) BuildHandoffRules() ([]scheduler.HandoffRule, error) {
	rules := make([]scheduler.HandoffRule, 0, len(c.Handoff))
	for i, e := range c.Handoff {
		at, err := sessions.ParseTimeOfDay(e.At)
		if err != nil {
			return nil, fmt.Errorf("handoff rule %d (%s): %w", i, e.Name, err)
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%s_%s_%s", e.Action, e.Scope, e.At)
		}
		rules = append(rules, scheduler.HandoffRule{
			Name:   name,
			At:     at,
			Action: scheduler.HandoffAction(e.Action),
			Scope:  e.Scope,
			Factor: e.Factor,
		})
	}
	return rules, nil
}

// SchedulerConfig translates the tick-loop tuning.
func (c Root) SchedulerConfig() (scheduler.Config, error) {
	var days sessions.WeekdaySet
	if len(c.Scheduler.TradingDays) > 0 {
		var err error
		days, err = sessions.ParseWeekdays(c.Scheduler.TradingDays)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("trading_days: %w", err)
		}
	}
	return scheduler.Config{
		TickInterval: time.Duration(c.Scheduler.TickIntervalMs) * time.Millisecond,
		CallTimeout:  time.Duration(c.Scheduler.CallTimeoutMs) * time.Millisecond,
		TradingDays:  days,
	}, nil
}

// GateConfig translates the admission thresholds.
func (c Root) GateConfig() gate.Config {
	return gate.Config{
		MaxSpreadBps:   c.Gate.MaxSpreadBps,
		MinTotalDepth:  c.Gate.MinTotalDepth,
		MaxFeedLatency: time.Duration(c.Gate.MaxLatencyMs) * time.Millisecond,
		Channel:        c.Gate.Channel,
	}
}

// BuildMarketData constructs the configured market-data source.
func (c Root) BuildMarketData() (adapters.MarketData, error) {
	switch c.MarketData.Source {
	case "sim":
		return adapters.NewSimMarketData(), nil
	case "http":
		if c.MarketData.BaseURL == "" {
			return nil, fmt.Errorf("market_data.base_url required for source=http")
		}
		return adapters.NewHTTPMarketData(adapters.HTTPMarketDataConfig{
			BaseURL:            c.MarketData.BaseURL,
			TimeoutMs:          c.MarketData.TimeoutMs,
			RateLimitPerMinute: c.MarketData.RateLimitPerMinute,
		}), nil
	default:
		return nil, fmt.Errorf("unknown market_data.source %q", c.MarketData.Source)
	}
}

// RedisConfig translates the Redis sink settings, pulling the password from
// the environment.
func (c Root) RedisConfig() events.RedisConfig {
	return events.RedisConfig{
		Addr:          c.Redis.Addr,
		Password:      os.Getenv("ORCHESTRATOR_REDIS_PASSWORD"),
		DB:            c.Redis.DB,
		ChannelPrefix: c.Redis.ChannelPrefix,
	}
}
