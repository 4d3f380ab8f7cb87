package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Repository drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRemote   = "remote"
)

type Config struct {
	Server     ServerConfig
	OTLP       OTLPConfig
	Repository RepositoryConfig
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type OTLPConfig struct {
	Enabled     bool   `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"product-catalog"`
	Environment string `envconfig:"OTEL_ENVIRONMENT" default:"development"`
}

// RepositoryConfig selects and configures the product store.
type RepositoryConfig struct {
	Driver        string        `envconfig:"REPOSITORY_DRIVER" default:"memory"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	RemoteBaseURL string        `envconfig:"REMOTE_BASE_URL" default:"http://localhost:8080"`
	ClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s"`
}

// LoadConfig reads a .env file when present, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Repository.Driver {
	case DriverMemory, DriverRemote:
	case DriverPostgres:
		if c.Repository.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown REPOSITORY_DRIVER %q", c.Repository.Driver)
	}
	return nil
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}
