package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	TransportHTTP = "http"
	TransportCLI  = "cli"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	LLM      LLMConfig      `env:",prefix=LLM_"`
	AMQP     AMQPConfig     `env:",prefix=AMQP_"`
	Upload   UploadConfig   `env:",prefix=UPLOAD_"`
	Generate GenerateConfig `env:",prefix=GENERATE_"`
	App      AppConfig      `env:",prefix=APP_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`   // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=330"` // seconds, must outlast LLM_TIMEOUT_SECONDS
}

// DatabaseConfig selects the campaign store. Path is only used by sqlite.
type DatabaseConfig struct {
	Driver   string `env:"DRIVER,default=sqlite"`
	Path     string `env:"PATH,default=ads.db"`
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=ads"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=10"`
	MinConns int    `env:"MIN_CONNS,default=2"`
}

// LLMConfig configures the local model runtime.
type LLMConfig struct {
	Transport      string `env:"TRANSPORT,default=http"`
	BaseURL        string `env:"BASE_URL,default=http://localhost:11434"`
	Command        string `env:"COMMAND,default=ollama"`
	TimeoutSeconds int    `env:"TIMEOUT_SECONDS,default=300"`
}

type AMQPConfig struct {
	URL   string `env:"URL"`
	Queue string `env:"QUEUE,default=campaign_scheduled"`
}

type UploadConfig struct {
	MaxBytes int64 `env:"MAX_BYTES,default=20971520"`
}

type GenerateConfig struct {
	RatePerMinute int `env:"RATE_PER_MINUTE,default=30"`
	Burst         int `env:"BURST,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would only fail later at wiring time.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.LLM.Transport {
	case TransportHTTP, TransportCLI:
	default:
		return fmt.Errorf("unsupported LLM_TRANSPORT %q", c.LLM.Transport)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Generate.RatePerMinute <= 0 || c.Generate.Burst <= 0 {
		return fmt.Errorf("GENERATE_RATE_PER_MINUTE and GENERATE_BURST must be positive")
	}
	return nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
