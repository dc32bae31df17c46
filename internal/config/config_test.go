package config

import (
	"os"
	"testing"
	"time"

	"github.com/portfolio-advisor/internal/types"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("OPENAI_TIMEOUT", "30s"); err != nil {
		t.Fatalf("Failed to set OPENAI_TIMEOUT: %v", err)
	}
	if err := os.Setenv("SUI_RPC_URL_TESTNET", "http://testnet.local:9000"); err != nil {
		t.Fatalf("Failed to set SUI_RPC_URL_TESTNET: %v", err)
	}
	if err := os.Setenv("SUI_NETWORK", "nonsense"); err != nil {
		t.Fatalf("Failed to set SUI_NETWORK: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("OPENAI_TIMEOUT")
		_ = os.Unsetenv("SUI_RPC_URL_TESTNET")
		_ = os.Unsetenv("SUI_NETWORK")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.Completion.Timeout != 30*time.Second {
		t.Errorf("Completion.Timeout = %v, want %v", cfg.Completion.Timeout, 30*time.Second)
	}

	if got := cfg.Networks.Endpoints[types.NetworkTestnet]; got != "http://testnet.local:9000" {
		t.Errorf("Networks.Endpoints[testnet] = %v, want override", got)
	}

	if got := cfg.Networks.Endpoints[types.NetworkDevnet]; got != DefaultRPCURLs[types.NetworkDevnet] {
		t.Errorf("Networks.Endpoints[devnet] = %v, want default", got)
	}

	if cfg.Networks.Default != types.NetworkMainnet {
		t.Errorf("Networks.Default = %v, want mainnet fallback", cfg.Networks.Default)
	}
}

func TestLoadConfig_AnalysisDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Analysis.GasTxWindow != 30 || cfg.Analysis.TaxTxWindow != 30 {
		t.Errorf("gas/tax windows = %d/%d, want 30/30", cfg.Analysis.GasTxWindow, cfg.Analysis.TaxTxWindow)
	}
	if cfg.Analysis.PortfolioTxWindow != 20 {
		t.Errorf("PortfolioTxWindow = %d, want 20", cfg.Analysis.PortfolioTxWindow)
	}
	if cfg.Analysis.StakingNetwork != types.NetworkMainnet {
		t.Errorf("StakingNetwork = %v, want mainnet", cfg.Analysis.StakingNetwork)
	}
	if cfg.Completion.Model != "gpt-4-turbo-preview" || cfg.Completion.Temperature != 0.7 {
		t.Errorf("Completion = %+v, want gpt-4-turbo-preview at 0.7", cfg.Completion)
	}
	if cfg.Networks.BreakerFailures != 5 || cfg.Networks.BreakerCooldown != 30*time.Second {
		t.Errorf("breaker = %d/%v, want 5/30s", cfg.Networks.BreakerFailures, cfg.Networks.BreakerCooldown)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want two localhost origins", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfig_RejectsNonPositiveWindows(t *testing.T) {
	for _, key := range []string{"GAS_TX_WINDOW", "TAX_TX_WINDOW", "PORTFOLIO_TX_WINDOW"} {
		for _, value := range []string{"0", "-5"} {
			t.Run(key+"="+value, func(t *testing.T) {
				t.Setenv(key, value)

				if _, err := LoadConfig(); err == nil {
					t.Errorf("LoadConfig() with %s=%s succeeded, want error", key, value)
				}
			})
		}
	}
}

func TestPostgresURL(t *testing.T) {
	c := PostgresConfig{User: "u", Password: "p", Host: "h", Port: "5432", Database: "d"}
	if got, want := c.PostgresURL(), "postgres://u:p@h:5432/d?sslmode=disable"; got != want {
		t.Errorf("PostgresURL() = %v, want %v", got, want)
	}
}

func TestGetEnvAsList(t *testing.T) {
	if err := os.Setenv("TEST_LIST", " a, ,b ,"); err != nil {
		t.Fatalf("Failed to set env var: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("TEST_LIST")
	}()

	got := getEnvAsList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("getEnvAsList() = %v, want [a b]", got)
	}

	if got := getEnvAsList("TEST_LIST_NOTSET", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("getEnvAsList() = %v, want default", got)
	}
}

func TestGetEnvAsFloatAndBool(t *testing.T) {
	if err := os.Setenv("TEST_FLOAT", "0.25"); err != nil {
		t.Fatalf("Failed to set env var: %v", err)
	}
	if err := os.Setenv("TEST_BOOL", "true"); err != nil {
		t.Fatalf("Failed to set env var: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("TEST_FLOAT")
		_ = os.Unsetenv("TEST_BOOL")
	}()

	if got := getEnvAsFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("getEnvAsFloat() = %v, want 0.25", got)
	}
	if got := getEnvAsFloat("TEST_FLOAT_NOTSET", 1); got != 1 {
		t.Errorf("getEnvAsFloat() = %v, want default", got)
	}
	if got := getEnvAsBool("TEST_BOOL", false); !got {
		t.Errorf("getEnvAsBool() = %v, want true", got)
	}
	if got := getEnvAsBool("TEST_BOOL_NOTSET", false); got {
		t.Errorf("getEnvAsBool() = %v, want default", got)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "NONEXISTENT_KEY",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns integer when valid",
			key:          "TEST_INT",
			defaultValue: 100,
			envValue:     "200",
			want:         200,
		},
		{
			name:         "returns default when invalid",
			key:          "TEST_INT_INVALID",
			defaultValue: 100,
			envValue:     "invalid",
			want:         100,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOTSET",
			defaultValue: 100,
			envValue:     "",
			want:         100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns duration when valid",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default when invalid",
			key:          "TEST_DURATION_INVALID",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOTSET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnvAsDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
