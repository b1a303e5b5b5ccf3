package config

import (
	"testing"
	"time"

	"github.com/VihaanShah2004/cardwise/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tier != domain.TierLocal {
		t.Errorf("Tier = %q, want %q", cfg.Tier, domain.TierLocal)
	}
	if cfg.Repository.Driver != "sqlite" {
		t.Errorf("Repository.Driver = %q, want sqlite", cfg.Repository.Driver)
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("Cache.Type = %q, want memory", cfg.Cache.Type)
	}
	if cfg.EventBus.Type != "channel" {
		t.Errorf("EventBus.Type = %q, want channel", cfg.EventBus.Type)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadClusterTier(t *testing.T) {
	t.Setenv("CARDWISE_TIER", "cluster")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tier != domain.TierCluster {
		t.Errorf("Tier = %q, want %q", cfg.Tier, domain.TierCluster)
	}
	if cfg.Repository.Driver != "postgres" {
		t.Errorf("Repository.Driver = %q, want postgres", cfg.Repository.Driver)
	}
	if cfg.Cache.Type != "redis" {
		t.Errorf("Cache.Type = %q, want redis", cfg.Cache.Type)
	}
	if cfg.EventBus.Type != "nats" {
		t.Errorf("EventBus.Type = %q, want nats", cfg.EventBus.Type)
	}
}

func TestLoadUnknownTier(t *testing.T) {
	t.Setenv("CARDWISE_TIER", "galactic")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want unknown tier error")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CARDWISE_PORT", "9090")
	t.Setenv("CARDWISE_SQLITE_PATH", "/tmp/cards.db")
	t.Setenv("CARDWISE_CACHE_TTL", "60")
	t.Setenv("CARDWISE_CATALOG_PATH", "/etc/cardwise/cards.json")
	t.Setenv("CARDWISE_LOG_LEVEL", "debug")
	t.Setenv("CARDWISE_TRACING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Repository.SQLitePath != "/tmp/cards.db" {
		t.Errorf("SQLitePath = %q, want /tmp/cards.db", cfg.Repository.SQLitePath)
	}
	if cfg.Cache.LocalTTL != 60*time.Second {
		t.Errorf("LocalTTL = %v, want 60s", cfg.Cache.LocalTTL)
	}
	if cfg.CatalogPath != "/etc/cardwise/cards.json" {
		t.Errorf("CatalogPath = %q, want /etc/cardwise/cards.json", cfg.CatalogPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = false, want true")
	}
}

func TestLoadRejectsInvalidWeights(t *testing.T) {
	t.Setenv("CARDWISE_WEIGHT_REWARD_RATE", "0.9")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want weight validation error")
	}
}

func TestLoadWeightOverrides(t *testing.T) {
	t.Setenv("CARDWISE_WEIGHT_REWARD_RATE", "0.5")
	t.Setenv("CARDWISE_WEIGHT_ANNUAL_FEE", "0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Weights.RewardRate != 0.5 {
		t.Errorf("Weights.RewardRate = %v, want 0.5", cfg.Weights.RewardRate)
	}
	if cfg.Weights.AnnualFee != 0.1 {
		t.Errorf("Weights.AnnualFee = %v, want 0.1", cfg.Weights.AnnualFee)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CARDWISE_TEST_INT", "not-a-number")
	if got := getEnvInt("CARDWISE_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt on garbage = %d, want default 7", got)
	}

	t.Setenv("CARDWISE_TEST_BOOL", "maybe")
	if got := getEnvBool("CARDWISE_TEST_BOOL", true); got != true {
		t.Errorf("getEnvBool on garbage = %v, want default true", got)
	}

	if got := getEnvFloat("CARDWISE_TEST_UNSET", 1.5); got != 1.5 {
		t.Errorf("getEnvFloat unset = %v, want default 1.5", got)
	}
}
