package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=168h"`
	ClientURL string        `env:"CLIENT_URL, default=http://localhost:3000"`

	Upload UploadConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	PayPal PayPalConfig
}

type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR,       default=./uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES, default=104857600"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=skillsharehub"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,       default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,         default=0"`
	LockTTL  time.Duration `env:"CAPTURE_LOCK_TTL, default=30s"`
}

type PayPalConfig struct {
	Mode           string        `env:"PAYPAL_MODE,            default=sandbox"`
	ClientID       string        `env:"PAYPAL_CLIENT_ID"`
	Secret         string        `env:"PAYPAL_SECRET"`
	BaseURL        string        `env:"PAYPAL_BASE_URL"`
	Currency       string        `env:"PAYPAL_CURRENCY,        default=USD"`
	Timeout        time.Duration `env:"PAYPAL_TIMEOUT,         default=15s"`
	CaptureTimeout time.Duration `env:"PAYPAL_CAPTURE_TIMEOUT, default=20s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := load(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PayPal.Mode != "sandbox" && c.PayPal.Mode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be sandbox or live, got %q", c.PayPal.Mode)
	}
	if c.IsProduction() && c.PayPal.Mode == "live" && (c.PayPal.ClientID == "" || c.PayPal.Secret == "") {
		return errors.New("PAYPAL_CLIENT_ID and PAYPAL_SECRET are required in live mode")
	}
	if c.PayPal.CaptureTimeout >= c.Redis.LockTTL {
		return fmt.Errorf("CAPTURE_LOCK_TTL (%s) must exceed PAYPAL_CAPTURE_TIMEOUT (%s)", c.Redis.LockTTL, c.PayPal.CaptureTimeout)
	}
	return nil
}
