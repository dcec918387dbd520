package container

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/serroba/shortlink/internal/messaging"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var (
	ErrUnknownStore = errors.New("unknown store")
	ErrUnknownBus   = errors.New("unknown bus")
)

// Options configures the server. Every field is also read from SERVICE_* env vars.
type Options struct {
	Port            int    `default:"8888"                                help:"Port to listen on"                                  short:"p"`
	BaseURL         string `help:"Base URL of generated links, http://localhost:{port} when empty" short:"b"`
	Store           string `default:"memory"                              help:"Record and visit storage: memory, postgres or redis" short:"s"`
	Bus             string `default:"memory"                              help:"Visit event bus: memory or redis"`
	DatabaseURL     string `default:"postgres://localhost:5432/shortlink" help:"Postgres connection string"`
	RedisAddr       string `default:"localhost:6379"                      help:"Redis server address"                               short:"r"`
	LogFormat       string `default:"json"                                help:"Log format: json or console"`
	LogLevel        string `default:"info"                                help:"Log level"`
	MaxHashAttempts int    `default:"5"                                   help:"Aliases tried before shortening fails"`
	VisitQueueSize  int    `default:"1024"                                help:"Pending visits buffered before new ones are dropped"`
	VisitWorkers    int    `default:"2"                                   help:"Goroutines publishing visits"`
	ConsumeVisits   bool   `default:"true"                                help:"Persist visits from the bus in this process"`
	Migrate         bool   `default:"true"                                help:"Apply Postgres migrations on start"`
}

// Validate reports unsupported backend names.
func (o *Options) Validate() error {
	switch o.Store {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, o.Store)
	}

	switch o.Bus {
	case messaging.BusMemory, messaging.BusRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBus, o.Bus)
	}

	return nil
}

// PublicBaseURL returns BaseURL or the localhost address derived from Port.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// ConsumerOptions configures the stand-alone visit consumer from the environment.
type ConsumerOptions struct {
	Store       string `env:"STORE"        envDefault:"redis"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/shortlink"`
	RedisAddr   string `env:"REDIS_ADDR"   envDefault:"localhost:6379"`
	LogFormat   string `env:"LOG_FORMAT"   envDefault:"json"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	Migrate     bool   `env:"MIGRATE"      envDefault:"false"`
}

// LoadConsumerOptions reads ConsumerOptions from the environment.
func LoadConsumerOptions() (ConsumerOptions, error) {
	var opts ConsumerOptions
	if err := env.Parse(&opts); err != nil {
		return opts, fmt.Errorf("parse consumer env: %w", err)
	}

	return opts, nil
}

// Options maps the consumer settings onto the shared Options. The consumer
// always reads from the Redis stream bus.
func (c ConsumerOptions) Options() *Options {
	return &Options{
		Store:       c.Store,
		Bus:         messaging.BusRedis,
		DatabaseURL: c.DatabaseURL,
		RedisAddr:   c.RedisAddr,
		LogFormat:   c.LogFormat,
		LogLevel:    c.LogLevel,
		Migrate:     c.Migrate,
	}
}
