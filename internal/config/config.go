package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"aihq/internal/models"
)

// Config holds all application configuration. It is built once at startup and
// passed by reference into each component; components never read env vars.
type Config struct {
	Port        string
	Environment string

	// Filesystem artifacts
	MemoryFile    string // encrypted single-document memory store
	ProposalsFile string // plaintext JSON proposal ledger (known security gap, see README)
	StagingDir    string // approved skills staged here for manual review
	ProvidersFile string // providers.json registry

	// Crypto / auth
	EncryptionMasterKey string // 32-byte hex; empty triggers the insecure dev fallback
	JWTSecret           string

	// Safety: even when true, nothing beyond staging ever happens.
	AllowAutoDeploy bool

	// Gateway tuning
	GatewayTimeout   time.Duration // per outbound call
	GatewayRateLimit float64       // requests/second per provider
	TrendCacheTTL    time.Duration // best-effort trend-check result cache
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: strings.ToLower(getEnv("ENVIRONMENT", "")),

		MemoryFile:    getEnv("MEMORY_FILE", "assistant_memory.enc"),
		ProposalsFile: getEnv("PROPOSALS_FILE", "proposals.json"),
		StagingDir:    getEnv("STAGING_DIR", "staging_skills"),
		ProvidersFile: getEnv("PROVIDERS_FILE", "providers.json"),

		EncryptionMasterKey: getEnv("ENCRYPTION_MASTER_KEY", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),

		AllowAutoDeploy: getBoolEnv("ALLOW_AUTO_DEPLOY", false),

		GatewayTimeout:   time.Duration(getIntEnv("GATEWAY_TIMEOUT_SECONDS", 60)) * time.Second,
		GatewayRateLimit: getFloatEnv("GATEWAY_RATE_LIMIT", 5),
		TrendCacheTTL:    time.Duration(getIntEnv("TREND_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

// LoadProviders loads the provider registry from a JSON file. A provider with
// no inline api_key falls back to the <NAME>_API_KEY environment variable;
// a provider may legitimately end up with no credential at all, in which case
// its calls degrade to a configuration error instead of crashing requests.
func LoadProviders(filePath string) (*models.ProvidersConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var config models.ProvidersConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse providers JSON: %w", err)
	}

	for i := range config.Providers {
		p := &config.Providers[i]
		if p.APIKey == "" {
			envKey := strings.ToUpper(strings.ReplaceAll(p.Name, "-", "_")) + "_API_KEY"
			p.APIKey = os.Getenv(envKey)
		}
	}

	return &config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
