// Package config loads the Cardwise configuration from the environment.
//
// Defaults come from the deployment tier: "local" runs on SQLite, an
// in-memory cache, and an in-process channel bus with no external
// services, while "cluster" runs on PostgreSQL, Redis, and NATS.
// Individual settings can be overridden per variable on top of either
// tier.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

// Load builds the configuration from the environment, optionally seeded
// from a .env file in the working directory.
func Load() (*domain.Config, error) {
	_ = godotenv.Load()

	var cfg *domain.Config
	switch tier := getEnv("CARDWISE_TIER", string(domain.TierLocal)); domain.Tier(tier) {
	case domain.TierLocal:
		cfg = domain.DefaultConfig()
	case domain.TierCluster:
		cfg = domain.ClusterConfig()
	default:
		return nil, fmt.Errorf("unknown tier %q", tier)
	}

	applyEnv(cfg)

	if err := cfg.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return cfg, nil
}

// applyEnv layers per-variable overrides on top of the tier defaults.
func applyEnv(cfg *domain.Config) {
	cfg.Server.Host = getEnv("CARDWISE_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("CARDWISE_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("CARDWISE_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("CARDWISE_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Repository.Driver = getEnv("CARDWISE_DB_DRIVER", cfg.Repository.Driver)
	cfg.Repository.SQLitePath = getEnv("CARDWISE_SQLITE_PATH", cfg.Repository.SQLitePath)
	cfg.Repository.PostgresHost = getEnv("CARDWISE_PG_HOST", cfg.Repository.PostgresHost)
	cfg.Repository.PostgresPort = getEnvInt("CARDWISE_PG_PORT", cfg.Repository.PostgresPort)
	cfg.Repository.PostgresUser = getEnv("CARDWISE_PG_USER", cfg.Repository.PostgresUser)
	cfg.Repository.PostgresPassword = getEnv("CARDWISE_PG_PASSWORD", cfg.Repository.PostgresPassword)
	cfg.Repository.PostgresDB = getEnv("CARDWISE_PG_DB", cfg.Repository.PostgresDB)
	cfg.Repository.PostgresSSLMode = getEnv("CARDWISE_PG_SSLMODE", cfg.Repository.PostgresSSLMode)
	cfg.Repository.MaxOpenConns = getEnvInt("CARDWISE_DB_MAX_OPEN_CONNS", cfg.Repository.MaxOpenConns)
	cfg.Repository.MaxIdleConns = getEnvInt("CARDWISE_DB_MAX_IDLE_CONNS", cfg.Repository.MaxIdleConns)

	cfg.Cache.Type = getEnv("CARDWISE_CACHE", cfg.Cache.Type)
	cfg.Cache.LocalMaxSize = getEnvInt("CARDWISE_CACHE_MAX_SIZE", cfg.Cache.LocalMaxSize)
	if ttl := getEnvInt("CARDWISE_CACHE_TTL", 0); ttl > 0 {
		cfg.Cache.LocalTTL = time.Duration(ttl) * time.Second
	}
	cfg.Cache.RedisAddr = getEnv("CARDWISE_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("CARDWISE_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("CARDWISE_REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.EnableTwoPhase = getEnvBool("CARDWISE_CACHE_TWO_PHASE", cfg.Cache.EnableTwoPhase)

	cfg.EventBus.Type = getEnv("CARDWISE_BUS", cfg.EventBus.Type)
	cfg.EventBus.ChannelBufferSize = getEnvInt("CARDWISE_BUS_BUFFER", cfg.EventBus.ChannelBufferSize)
	cfg.EventBus.NATSUrl = getEnv("CARDWISE_NATS_URL", cfg.EventBus.NATSUrl)
	cfg.EventBus.NATSToken = getEnv("CARDWISE_NATS_TOKEN", cfg.EventBus.NATSToken)
	cfg.EventBus.NATSMaxReconnects = getEnvInt("CARDWISE_NATS_MAX_RECONNECTS", cfg.EventBus.NATSMaxReconnects)
	cfg.EventBus.NATSReconnectWait = getEnvInt("CARDWISE_NATS_RECONNECT_WAIT", cfg.EventBus.NATSReconnectWait)

	cfg.CatalogPath = getEnv("CARDWISE_CATALOG_PATH", cfg.CatalogPath)

	cfg.Weights.RewardRate = getEnvFloat("CARDWISE_WEIGHT_REWARD_RATE", cfg.Weights.RewardRate)
	cfg.Weights.AnnualFee = getEnvFloat("CARDWISE_WEIGHT_ANNUAL_FEE", cfg.Weights.AnnualFee)
	cfg.Weights.UserPreference = getEnvFloat("CARDWISE_WEIGHT_USER_PREFERENCE", cfg.Weights.UserPreference)
	cfg.Weights.SignupBonus = getEnvFloat("CARDWISE_WEIGHT_SIGNUP_BONUS", cfg.Weights.SignupBonus)
	cfg.Weights.CreditScore = getEnvFloat("CARDWISE_WEIGHT_CREDIT_SCORE", cfg.Weights.CreditScore)

	cfg.Logging.Level = getEnv("CARDWISE_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("CARDWISE_LOG_FORMAT", cfg.Logging.Format)
	cfg.Tracing.Enabled = getEnvBool("CARDWISE_TRACING", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = getEnv("CARDWISE_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.Endpoint = getEnv("CARDWISE_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
