package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"storefront"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	ServerPort string `env:"SERVER_PORT" envDefault:"5001"`
	ServerHost string `env:"SERVER_HOST" envDefault:"localhost"`
	Env        string `env:"ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// Origins
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5001/api"`
	ClientURL  string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Real-time layer
	BroadcastInterval    time.Duration `env:"BROADCAST_INTERVAL" envDefault:"30s"`
	LowStockThreshold    int           `env:"LOW_STOCK_THRESHOLD" envDefault:"10"`
	LowStockRepeatAlerts bool          `env:"LOW_STOCK_REPEAT_ALERTS" envDefault:"true"`
	WSMessagesPerSecond  float64       `env:"WS_MESSAGES_PER_SECOND" envDefault:"5"`
	WSBurst              int           `env:"WS_BURST" envDefault:"10"`
	RedisURL             string        `env:"REDIS_URL"`

	// Analytics worker pool
	AnalyticsWorkers   int           `env:"ANALYTICS_WORKERS" envDefault:"2"`
	AnalyticsQueueSize int           `env:"ANALYTICS_QUEUE_SIZE" envDefault:"256"`
	AnalyticsRetention time.Duration `env:"ANALYTICS_RETENTION" envDefault:"2160h"`

	// Observability
	TracingEnabled   bool    `env:"TRACING_ENABLED" envDefault:"true"`
	JaegerEndpoint   string  `env:"JAEGER_ENDPOINT" envDefault:"http://localhost:14268/api/traces"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("BROADCAST_INTERVAL must be positive, got %s", c.BroadcastInterval)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	if c.AnalyticsWorkers < 1 {
		return fmt.Errorf("ANALYTICS_WORKERS must be at least 1, got %d", c.AnalyticsWorkers)
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// ServerAddr returns host:port for the HTTP listener.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// IsDevelopment reports whether verbose development defaults should apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseRedisRelay reports whether envelopes are shared with other instances.
func (c *Config) UseRedisRelay() bool {
	return c.RedisURL != ""
}
