package config

import (
	"testing"
	"time"
)

// TestLoad_Defaults は環境変数未設定時にデフォルト値が適用されることを検証する。
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.CharacterDropRate != 0.15 {
		t.Errorf("CharacterDropRate = %v, want 0.15", cfg.CharacterDropRate)
	}
	if cfg.GenMaxRetries != 3 {
		t.Errorf("GenMaxRetries = %d, want 3", cfg.GenMaxRetries)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CacheTTL != 30*24*time.Hour {
		t.Errorf("CacheTTL = %v, want 720h", cfg.CacheTTL)
	}
}

// TestLoad_Overrides は環境変数による上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NTALO_DATA_DIR", "/tmp/ntalo")
	t.Setenv("NTALO_CHARACTER_DROP_RATE", "0.5")
	t.Setenv("NTALO_GEN_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_GENERATION", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DataDir != "/tmp/ntalo" {
		t.Errorf("DataDir = %q, want /tmp/ntalo", cfg.DataDir)
	}
	if cfg.CharacterDropRate != 0.5 {
		t.Errorf("CharacterDropRate = %v, want 0.5", cfg.CharacterDropRate)
	}
	if cfg.GenTimeout != 5*time.Second {
		t.Errorf("GenTimeout = %v, want 5s", cfg.GenTimeout)
	}
	if cfg.RateLimitGeneration != 10 {
		t.Errorf("RateLimitGeneration = %d, want 10", cfg.RateLimitGeneration)
	}
}

// TestLoad_InvalidValuesFallBack は不正値がデフォルトにフォールバックすることを検証する。
func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("NTALO_CHARACTER_DROP_RATE", "not-a-number")
	t.Setenv("NTALO_GEN_MAX_RETRIES", "three")
	t.Setenv("NTALO_PROBE_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.CharacterDropRate != 0.15 {
		t.Errorf("CharacterDropRate = %v, want default 0.15", cfg.CharacterDropRate)
	}
	if cfg.GenMaxRetries != 3 {
		t.Errorf("GenMaxRetries = %d, want default 3", cfg.GenMaxRetries)
	}
	if cfg.ProbeInterval != 30*time.Second {
		t.Errorf("ProbeInterval = %v, want default 30s", cfg.ProbeInterval)
	}
}
