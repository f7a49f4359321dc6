// Package config provides application configuration management with environment
// variable loading, validation, and sensible defaults. It supports .env files
// for local development and validates all required settings on startup to
// prevent runtime configuration errors.
//
// Configuration is loaded from environment variables with the Load() function,
// which returns a validated Config struct or an error if required variables
// are missing or invalid.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	server := &http.Server{Addr: ":" + cfg.Server.Port}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backend identifiers accepted by StoreConfig.Backend.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// Config holds all configuration for the application.
// It aggregates all configuration sections into a single struct
// for easy access throughout the application.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	License   LicenseConfig
	OAuth     OAuthConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration including port,
// environment, and the frontend URL used for post-login redirects.
type ServerConfig struct {
	Port        string
	Environment string
	FrontendURL string // URL to redirect after successful Google sign-in
}

// StoreConfig selects and namespaces the profile store backend.
type StoreConfig struct {
	Backend string // "memory", "redis", or "postgres"
	Prefix  string // Optional key namespace when several deployments share a backend
}

// RedisConfig holds Redis configuration including connection parameters,
// authentication, database selection, and pool size. Redis backs the profile
// store (when selected) and the login rate limiter.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int // Connection pool size
}

// PostgresConfig holds PostgreSQL configuration for the SQL profile store
// backend. Only consulted when StoreConfig.Backend is "postgres".
type PostgresConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	MaxConns int // Maximum number of connections in the pool
}

// LicenseConfig holds the mock license verifier's credential pair, the
// simulated round-trip latency, and the auth store's gate policy.
//
// The gate defaults replicate the shipped product posture: both gates start
// open. A deployment that wants real gating flips the defaults here rather
// than patching code.
type LicenseConfig struct {
	Username             string        // Valid username, matched case-insensitively
	Password             string        // Valid password, matched exactly
	Latency              time.Duration // Simulated network round trip per call (0 disables)
	AutoLogin            bool          // Attempt startup login with the saved credential pair
	DefaultLicensed      bool          // Initial isLicensed state
	DefaultBypassGoogle  bool          // Initial isGoogleBypassed state
	ResetLicenseOnLogout bool          // Whether logout reverts isLicensed to false
}

// OAuthConfig holds Google OAuth 2.0 configuration. When the client ID or
// secret is empty the Google sign-in routes are not mounted and the Google
// identity can only be installed through the API.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (c *OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// JWTConfig holds the access token signing secret and lifetime.
type JWTConfig struct {
	Secret       []byte
	AccessExpiry time.Duration
}

// CORSConfig holds Cross-Origin Resource Sharing (CORS) configuration
// to control which origins can access the API.
type CORSConfig struct {
	AllowedOrigins []string // List of allowed origin URLs
}

// RateLimitConfig holds rate limiting configuration for the credential
// endpoints, protecting the mock verifier from brute-force noise.
type RateLimitConfig struct {
	RequestsPerMinute int
	WindowDuration    time.Duration // Time window for rate limiting (default: 1 minute)
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present (for local development) but
// doesn't fail if the file is missing (for production deployments).
//
// Required environment variables:
//   - JWT_SECRET: Secret for access token signing (>=32 bytes)
//   - POSTGRES_PASSWORD: Only when STORE_BACKEND=postgres
//
// Everything else has a default. The license credential pair defaults to the
// studio's shipped constants and should be overridden per deployment.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Configuration error")
//	}
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	jwtSecret, err := getEnvRequired("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENV", "development"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", StoreBackendRedis),
			Prefix:  getEnv("STORE_PREFIX", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			Database: getEnv("POSTGRES_DB", "studioauth"),
			User:     getEnv("POSTGRES_USER", "studioauth"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			MaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		},
		License: LicenseConfig{
			Username:             getEnv("LICENSE_USERNAME", "SP Tool"),
			Password:             getEnv("LICENSE_PASSWORD", "studentai2026"),
			Latency:              getEnvAsDuration("LICENSE_LATENCY", 800*time.Millisecond),
			AutoLogin:            getEnvAsBool("LICENSE_AUTO_LOGIN", true),
			DefaultLicensed:      getEnvAsBool("LICENSE_DEFAULT_LICENSED", true),
			DefaultBypassGoogle:  getEnvAsBool("LICENSE_DEFAULT_BYPASS_GOOGLE", true),
			ResetLicenseOnLogout: getEnvAsBool("LICENSE_RESET_ON_LOGOUT", false),
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("AUTH_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		},
		JWT: JWTConfig{
			Secret:       []byte(jwtSecret),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 12*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowDuration:    getEnvAsDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if all required configuration is present and valid.
// It performs comprehensive validation including:
//   - Port numbers are valid integers
//   - The store backend is a known identifier
//   - Backend-specific credentials are present for the selected backend
//   - JWT secret meets the minimum length requirement (32 bytes)
//   - OAuth URLs parse when Google sign-in is configured
//
// This method is called automatically by Load() but can also be called
// independently for testing or validation purposes.
//
// Returns an error describing the first validation failure encountered,
// or nil if all configuration is valid.
func (c *Config) Validate() error {
	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	// Validate store backend selection
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Store.Backend == StoreBackendRedis || c.RateLimit.RequestsPerMinute > 0 {
		if _, err := strconv.Atoi(c.Redis.Port); err != nil {
			return fmt.Errorf("redis port must be a valid integer: %w", err)
		}
	}

	if c.Store.Backend == StoreBackendPostgres {
		if _, err := strconv.Atoi(c.Postgres.Port); err != nil {
			return fmt.Errorf("postgres port must be a valid integer: %w", err)
		}
		if c.Postgres.Password == "" {
			return fmt.Errorf("postgres password is required for the postgres store backend")
		}
	}

	// Validate license credential pair
	if c.License.Username == "" || c.License.Password == "" {
		return fmt.Errorf("license credential pair must not be empty")
	}
	if c.License.Latency < 0 {
		return fmt.Errorf("license latency must not be negative")
	}

	// Validate OAuth configuration when enabled
	if c.OAuth.Enabled() {
		if _, err := url.ParseRequestURI(c.OAuth.RedirectURL); err != nil {
			return fmt.Errorf("invalid OAuth redirect URL: %w", err)
		}
	}

	// Validate frontend URL format
	if _, err := url.ParseRequestURI(c.Server.FrontendURL); err != nil {
		return fmt.Errorf("invalid frontend URL: %w", err)
	}

	// Validate JWT secret
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 bytes")
	}

	return nil
}

// DSN returns the PostgreSQL Data Source Name (connection string) formatted
// for use with the lib/pq driver.
//
// Note: SSL is disabled for local development. In production, enable SSL and
// configure appropriate certificates.
//
// Example:
//
//	db, err := sql.Open("postgres", cfg.Postgres.DSN())
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database,
	)
}

// Address returns the Redis server address in "host:port" format.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address()})
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions for environment variable parsing

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired retrieves a required environment variable.
// Returns an error if the variable is not set or is empty.
func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an integer with a default
// fallback. If the variable is not set or cannot be parsed, returns defaultValue.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean with a default
// fallback. Accepts the forms understood by strconv.ParseBool ("1", "true",
// "FALSE", ...).
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration with
// a default fallback. Supports Go duration format: "300ms", "1.5h", "2h45m".
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves an environment variable as a string slice with a
// default fallback. Parses comma-separated values, trimming whitespace and
// dropping empty elements.
//
// Example:
//
//	// ALLOWED_ORIGINS=http://localhost:3000,https://example.com
//	origins := getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
