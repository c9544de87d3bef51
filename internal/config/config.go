package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	AuthProviderLocal   = "local"
	AuthProviderCasdoor = "casdoor"
)

type Config struct {
	Port        string     `env:"PORT" envDefault:"8080"`
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL     string        `env:"DATABASE_URL,notEmpty"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLife   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	RedisURL        string        `env:"REDIS_URL"`
	AnalyticsTTL    time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`

	AuthProvider string        `env:"AUTH_PROVIDER" envDefault:"local"`
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
	Casdoor      CasdoorConfig `envPrefix:"CASDOOR_"`

	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopicPrefix string   `env:"EVENTS_TOPIC_PREFIX" envDefault:"records"`
}

type CasdoorConfig struct {
	Endpoint     string `env:"ENDPOINT"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Cert         string `env:"CERT"`
	Organization string `env:"ORGANIZATION"`
	Application  string `env:"APPLICATION"`
}

// LoadConfig reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.AuthProvider = strings.ToLower(strings.TrimSpace(c.AuthProvider))

	switch c.AuthProvider {
	case AuthProviderLocal:
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters for local auth")
		}
	case AuthProviderCasdoor:
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" || c.Casdoor.Cert == "" {
			return errors.New("CASDOOR_ENDPOINT, CASDOOR_CLIENT_ID and CASDOOR_CERT are required for casdoor auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
