package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultAPIToken = "dev-token"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Engine   EngineConfig
	Logger   LoggerConfig
	Metrics  MetricsConfig
}

// ServerConfig represents gRPC server configuration
type ServerConfig struct {
	GRPCAddr        string
	ShutdownTimeout time.Duration
}

// DatabaseConfig represents Postgres configuration
type DatabaseConfig struct {
	ConnStr        string
	MigrationsPath string
	RunMigrations  bool
	StartupDelay   time.Duration
}

// CacheConfig represents Redis summary cache configuration
// The cache is disabled when Host is empty.
type CacheConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	SummaryTTL time.Duration
}

// Enabled reports whether a Redis host was configured
func (c CacheConfig) Enabled() bool {
	return c.Host != ""
}

// AuthConfig represents transport authentication configuration
type AuthConfig struct {
	APIToken string
}

// EngineConfig represents valuation engine settings
type EngineConfig struct {
	CalculationTimeout time.Duration
	MaxConcurrency     int
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// Load loads configuration from the environment, reading a .env file when present
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			GRPCAddr:        getEnv("GRPC_ADDR", ":8080"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			ConnStr:        getEnv("DB_CONN_STR", buildConnStr()),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
			RunMigrations:  getEnvBool("DB_RUN_MIGRATIONS", true),
			StartupDelay:   getEnvDuration("DB_STARTUP_DELAY", 2*time.Second),
		},
		Cache: CacheConfig{
			Host:       getEnv("REDIS_HOST", ""),
			Port:       getEnvInt("REDIS_PORT", 6379),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			SummaryTTL: getEnvDuration("SUMMARY_CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			APIToken: getEnv("API_TOKEN", defaultAPIToken),
		},
		Engine: EngineConfig{
			CalculationTimeout: getEnvDuration("ENGINE_CALCULATION_TIMEOUT", 30*time.Second),
			MaxConcurrency:     getEnvInt("ENGINE_MAX_CONCURRENCY", 4),
		},
		Logger: LoggerConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Addr:    getEnv("METRICS_ADDR", ":9090"),
		},
	}
}

// buildConnStr builds the connection string from individual vars (Docker friendly)
func buildConnStr() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "folio"),
	)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.ConnStr == "" {
		return errors.New("database connection string is required")
	}

	if c.Server.GRPCAddr == "" {
		return errors.New("gRPC address is required")
	}

	if c.Engine.CalculationTimeout <= 0 {
		return errors.New("engine calculation timeout must be positive")
	}

	if c.Engine.MaxConcurrency <= 0 {
		return errors.New("engine max concurrency must be positive")
	}

	if c.Auth.APIToken == defaultAPIToken {
		logrus.Warn("Using default API token, this is not recommended for production")
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
