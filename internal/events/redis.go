package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis pub/sub sink.
type RedisConfig struct {
	Addr          string `json:"addr" yaml:"addr"`
	Password      string `json:"password" yaml:"password"`
	DB            int    `json:"db" yaml:"db"`
	ChannelPrefix string `json:"channel_prefix" yaml:"channel_prefix"`
}

// RedisPublisher publishes events to one Redis channel per event type
// (prefix + type). Other services and the dashboard subscribe there.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher connects and pings; a sink that cannot be reached at
// startup is a configuration error.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "orchestrator."
	}
	return &RedisPublisher{client: client, prefix: prefix}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Envelope) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	if err := p.client.Publish(ctx, p.prefix+string(ev.Type), b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }
