// Package config provides configuration management for the portfolio advisor.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/portfolio-advisor/internal/types"
)

// Public fullnode endpoints used when no override is configured
var DefaultRPCURLs = map[types.NetworkID]string{
	types.NetworkMainnet:  "https://fullnode.mainnet.sui.io:443",
	types.NetworkTestnet:  "https://fullnode.testnet.sui.io:443",
	types.NetworkDevnet:   "https://fullnode.devnet.sui.io:443",
	types.NetworkLocalnet: "http://127.0.0.1:9000",
}

// Analysis window defaults. Gas and tax read 30 transactions, the
// portfolio snapshot reads 20.
const (
	DefaultGasTxWindow       = 30
	DefaultTaxTxWindow       = 30
	DefaultPortfolioTxWindow = 20
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Networks   NetworksConfig
	Analysis   AnalysisConfig
	Completion CompletionConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
	MigrationsPath string
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MigrationsPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// NetworksConfig holds the Sui network endpoints
type NetworksConfig struct {
	Default        types.NetworkID
	Endpoints      map[types.NetworkID]string
	RequestTimeout time.Duration
	// PageSize and MaxPages bound paginated object and coin listings
	PageSize int
	MaxPages int
	// BreakerFailures consecutive node failures open a network's circuit; 0 disables it
	BreakerFailures int
	BreakerCooldown time.Duration
}

// AnalysisConfig holds the per-analyzer windows and bindings
type AnalysisConfig struct {
	GasTxWindow       int
	TaxTxWindow       int
	PortfolioTxWindow int
	// StakingNetwork is used for staking reads regardless of the requested network
	StakingNetwork types.NetworkID
	// StakingRPCURL overrides the staking endpoint when set
	StakingRPCURL string
}

// CompletionConfig holds the text-completion service configuration
type CompletionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// Outbound compute-unit budget shared through Redis
	RPCBudgetPerSecond int
	RPCMaxWait         time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", getEnv("PORT", "3001")),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Enabled:        getEnvAsBool("POSTGRES_ENABLED", false),
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "portfolio_advisor"),
				User:           getEnv("POSTGRES_USER", "advisor"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
				MigrationsPath: getEnv("POSTGRES_MIGRATIONS_PATH", "migrations/postgres"),
			},
			ClickHouse: ClickHouseConfig{
				Enabled:        getEnvAsBool("CLICKHOUSE_ENABLED", false),
				Host:           getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:           getEnv("CLICKHOUSE_PORT", "9000"),
				Database:       getEnv("CLICKHOUSE_DB", "portfolio_advisor"),
				User:           getEnv("CLICKHOUSE_USER", "default"),
				Password:       getEnv("CLICKHOUSE_PASSWORD", ""),
				MigrationsPath: getEnv("CLICKHOUSE_MIGRATIONS_PATH", "migrations/clickhouse"),
			},
			Redis: RedisConfig{
				Enabled:        getEnvAsBool("REDIS_ENABLED", false),
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Networks: loadNetworksConfig(),
		Analysis: AnalysisConfig{
			GasTxWindow:       getEnvAsInt("GAS_TX_WINDOW", DefaultGasTxWindow),
			TaxTxWindow:       getEnvAsInt("TAX_TX_WINDOW", DefaultTaxTxWindow),
			PortfolioTxWindow: getEnvAsInt("PORTFOLIO_TX_WINDOW", DefaultPortfolioTxWindow),
			StakingNetwork:    types.ParseNetworkID(getEnv("STAKING_NETWORK", string(types.NetworkMainnet))),
			StakingRPCURL:     getEnv("SUI_RPC_URL", ""),
		},
		Completion: CompletionConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:  getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:              getEnvAsInt("RATE_LIMIT_BURST", 10),
			RPCBudgetPerSecond: getEnvAsInt("RPC_BUDGET_CU_PER_SECOND", 500),
			RPCMaxWait:         getEnvAsDuration("RPC_BUDGET_MAX_WAIT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Analysis.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate rejects transaction windows the ledger cannot serve
func (a AnalysisConfig) validate() error {
	windows := []struct {
		name  string
		value int
	}{
		{"GAS_TX_WINDOW", a.GasTxWindow},
		{"TAX_TX_WINDOW", a.TaxTxWindow},
		{"PORTFOLIO_TX_WINDOW", a.PortfolioTxWindow},
	}
	for _, w := range windows {
		if w.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", w.name, w.value)
		}
	}
	return nil
}

// loadNetworksConfig resolves one endpoint per supported network
func loadNetworksConfig() NetworksConfig {
	endpoints := make(map[types.NetworkID]string, len(types.SupportedNetworks))
	for _, network := range types.SupportedNetworks {
		key := "SUI_RPC_URL_" + strings.ToUpper(string(network))
		endpoints[network] = getEnv(key, DefaultRPCURLs[network])
	}

	return NetworksConfig{
		Default:         types.ParseNetworkID(getEnv("SUI_NETWORK", string(types.DefaultNetwork))),
		Endpoints:       endpoints,
		RequestTimeout:  getEnvAsDuration("SUI_RPC_TIMEOUT", 30*time.Second),
		PageSize:        getEnvAsInt("SUI_PAGE_SIZE", 50),
		MaxPages:        getEnvAsInt("SUI_MAX_PAGES", 10),
		BreakerFailures: getEnvAsInt("SUI_BREAKER_FAILURES", 5),
		BreakerCooldown: getEnvAsDuration("SUI_BREAKER_COOLDOWN", 30*time.Second),
	}
}

// PostgresURL builds a migrate-compatible connection URL
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Addr returns host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
