// Package config loads votearena settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/votearena/go/internal/cache"
	"github.com/mcdev12/votearena/go/internal/dbconfig"
	"github.com/mcdev12/votearena/go/internal/gateway"
	"github.com/mcdev12/votearena/go/internal/realtime/natsbus"
	"github.com/mcdev12/votearena/go/internal/realtime/pgnotify"
)

// EnvPrefix prefixes every environment override, e.g. VOTEARENA_SERVER_PORT.
const EnvPrefix = "VOTEARENA"

type ctxKey string

const configContextKey ctxKey = "votearena.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Transport selects where live events come from
type Transport string

const (
	TransportMemory   Transport = "memory"
	TransportNATS     Transport = "nats"
	TransportPostgres Transport = "postgres"
)

func (t Transport) Valid() bool {
	switch t {
	case TransportMemory, TransportNATS, TransportPostgres:
		return true
	default:
		return false
	}
}

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database dbconfig.Config `yaml:"database"`
	Realtime RealtimeConfig  `yaml:"realtime"`
	Redis    cache.Config    `yaml:"redis"`
	Gateway  gateway.Config  `yaml:"gateway"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"              envconfig:"PORT"`
	AllowedOrigins    []string      `yaml:"allowedOrigins"    split_words:"true"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" split_words:"true"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"   split_words:"true"`
}

type RealtimeConfig struct {
	Transport Transport       `yaml:"transport"`
	NATS      natsbus.Config  `yaml:"nats"`
	Postgres  pgnotify.Config `yaml:"postgres"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"   envconfig:"LOG_LEVEL"`
	Console bool   `yaml:"console"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			AllowedOrigins:    []string{"*"},
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: dbconfig.Default(),
		Realtime: RealtimeConfig{
			Transport: TransportNATS,
			NATS:      natsbus.DefaultConfig(),
			Postgres:  pgnotify.DefaultConfig(),
		},
		Redis:   cache.DefaultConfig(),
		Gateway: gateway.DefaultConfig(),
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}

// Load builds the configuration. A missing .env file is fine; a missing
// config file named explicitly is not.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !c.Realtime.Transport.Valid() {
		return fmt.Errorf("invalid realtime transport %q", c.Realtime.Transport)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Gateway.TickInterval <= 0 {
		return fmt.Errorf("gateway tick interval must be positive, got %s", c.Gateway.TickInterval)
	}
	return nil
}
