// Package cache keeps the last published read model of each competition in
// Redis so state requests can be answered without a database round trip.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/view"
)

type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize" split_words:"true"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig leaves Addr empty, which disables caching.
func DefaultConfig() Config {
	return Config{
		PoolSize: 100,
		TTL:      10 * time.Minute,
	}
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("redis connection established")
	return rdb, nil
}

// ReadModels stores read models as JSON under competition:readmodel:<id>
type ReadModels struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewReadModels(rdb redis.Cmdable, ttl time.Duration) *ReadModels {
	return &ReadModels{rdb: rdb, ttl: ttl}
}

func Key(competitionID uuid.UUID) string {
	return "competition:readmodel:" + competitionID.String()
}

// Get returns the cached model, or (nil, nil) on a miss.
func (c *ReadModels) Get(ctx context.Context, competitionID uuid.UUID) (*view.ReadModel, error) {
	data, err := c.rdb.Get(ctx, Key(competitionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached read model: %w", err)
	}

	var m view.ReadModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode cached read model: %w", err)
	}
	return &m, nil
}

// Set stores m with the configured TTL.
func (c *ReadModels) Set(ctx context.Context, m *view.ReadModel) error {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode read model: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(m.CompetitionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache read model: %w", err)
	}
	return nil
}

// Invalidate removes a competition's cached model.
func (c *ReadModels) Invalidate(ctx context.Context, competitionID uuid.UUID) error {
	if err := c.rdb.Del(ctx, Key(competitionID)).Err(); err != nil {
		return fmt.Errorf("invalidate read model: %w", err)
	}
	return nil
}
