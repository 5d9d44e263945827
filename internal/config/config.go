// Package config loads pricesync settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Vendor   VendorConfig
	S3       S3Config
}

// ServerConfig holds the catalogue API listener settings.
type ServerConfig struct {
	Host               string
	Port               int
	AllowedOrigin      string
	ShutdownTimeoutSec int
}

// DatabaseConfig holds the catalogue database settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds the key clients must present to the catalogue API.
type AuthConfig struct {
	APIKey string
}

// VendorConfig holds the Omega pricing API configuration.
type VendorConfig struct {
	BaseURL    string
	APIKey     string
	TimeoutSec int
	Radix      string
}

// S3Config locates archived vendor snapshots.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // key prefix within the bucket, e.g. "snapshots/"
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := environment(getenv)

	cfg := &Config{
		Server: ServerConfig{
			Host:               env.get("SERVER_HOST", "0.0.0.0"),
			Port:               env.getInt("SERVER_PORT", 8081),
			AllowedOrigin:      env.get("CORS_ALLOWED_ORIGIN", "*"),
			ShutdownTimeoutSec: env.getInt("SERVER_SHUTDOWN_TIMEOUT_SEC", 30),
		},
		Database: DatabaseConfig{
			Host:            env.get("DB_HOST", "localhost"),
			Port:            env.getInt("DB_PORT", 5432),
			User:            env.get("DB_USER", "postgres"),
			Password:        env.get("DB_PASSWORD", ""),
			Database:        env.get("DB_NAME", "pricesync"),
			SSLMode:         env.get("DB_SSLMODE", "disable"),
			MaxConnections:  env.getInt("DB_MAX_CONNECTIONS", 10),
			MinConnections:  env.getInt("DB_MIN_CONNECTIONS", 1),
			MaxConnLifetime: env.getInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  env.get("LOG_LEVEL", "info"),
			Format: env.get("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: env.get("API_KEY", ""),
		},
		Vendor: VendorConfig{
			BaseURL:    env.get("VENDOR_BASE_URL", "http://localhost:8080"),
			APIKey:     env.get("VENDOR_API_KEY", ""),
			TimeoutSec: env.getInt("VENDOR_TIMEOUT_SEC", 30),
			Radix:      env.get("VENDOR_RADIX", "."),
		},
		S3: S3Config{
			Enabled: env.getBool("S3_ENABLED", false),
			Bucket:  env.get("S3_BUCKET", ""),
			Region:  env.get("S3_REGION", "us-east-1"),
			Prefix:  env.get("S3_PREFIX", "snapshots/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings shared by every binary and reports all problems at once.
// Credentials are checked separately by AuthConfig.Validate and VendorConfig.Validate,
// since each binary needs only one of them.
func (c *Config) Validate() error {
	var problems []error
	problems = append(problems, c.Server.validate()...)
	problems = append(problems, c.Database.validate()...)
	problems = append(problems, c.Logger.validate()...)
	problems = append(problems, c.Vendor.validate()...)
	problems = append(problems, c.S3.validate()...)
	return errors.Join(problems...)
}

func (c *ServerConfig) validate() []error {
	var problems []error
	if !validPort(c.Port) {
		problems = append(problems, fmt.Errorf("invalid server port: %d", c.Port))
	}
	if c.ShutdownTimeoutSec < 1 {
		problems = append(problems, errors.New("server shutdown timeout must be at least 1 second"))
	}
	return problems
}

func (c *DatabaseConfig) validate() []error {
	var problems []error
	if c.Host == "" {
		problems = append(problems, errors.New("database host is required"))
	}
	if !validPort(c.Port) {
		problems = append(problems, fmt.Errorf("invalid database port: %d", c.Port))
	}
	if c.User == "" {
		problems = append(problems, errors.New("database user is required"))
	}
	if c.Database == "" {
		problems = append(problems, errors.New("database name is required"))
	}
	if c.MinConnections < 1 || c.MaxConnections < 1 {
		problems = append(problems, errors.New("database connection limits must be at least 1"))
	} else if c.MinConnections > c.MaxConnections {
		problems = append(problems, errors.New("database min connections cannot exceed max connections"))
	}
	return problems
}

func (c *LoggerConfig) validate() []error {
	var problems []error
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level))
	}
	if c.Format != "json" && c.Format != "console" {
		problems = append(problems, fmt.Errorf("invalid log format: %s (must be json or console)", c.Format))
	}
	return problems
}

func (c *VendorConfig) validate() []error {
	var problems []error
	if c.TimeoutSec < 1 {
		problems = append(problems, errors.New("vendor timeout must be at least 1 second"))
	}
	if utf8.RuneCountInString(c.Radix) != 1 {
		problems = append(problems, fmt.Errorf("invalid vendor radix: %q (must be a single character)", c.Radix))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Errorf("invalid vendor base URL: %q", c.BaseURL))
	}
	return problems
}

func (c *S3Config) validate() []error {
	if !c.Enabled {
		return nil
	}
	var problems []error
	if c.Bucket == "" {
		problems = append(problems, errors.New("S3 bucket is required when S3 is enabled"))
	}
	if c.Region == "" {
		problems = append(problems, errors.New("S3 region is required when S3 is enabled"))
	}
	return problems
}

// Validate checks that the catalogue API key is present.
func (c *AuthConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("API key is required")
	}
	return nil
}

// Validate checks that the vendor credentials are present.
func (c *VendorConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("vendor API key is required")
	}
	return nil
}

// Timeout returns the per-request vendor timeout.
func (c *VendorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// RadixRune returns the decimal separator used in vendor prices.
func (c *VendorConfig) RadixRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Radix)
	return r
}

// ConnectionString returns the PostgreSQL URL, with credentials escaped.
func (c *DatabaseConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Address returns the listen address.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ShutdownTimeout bounds graceful shutdown of the API server.
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

func validPort(port int) bool {
	return port >= 1 && port <= 65535
}

// environment reads typed values, falling back to a default when a variable is unset or unparsable.
type environment func(string) string

func (e environment) get(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e environment) getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(e(key)); err == nil {
		return value
	}
	return defaultValue
}

func (e environment) getBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(e(key)); err == nil {
		return value
	}
	return defaultValue
}
