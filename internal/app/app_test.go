package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestInit_WithDefaults_Succeeds(t *testing.T) {
	t.Setenv("NTALO_DATA_DIR", "")
	t.Setenv("SERVER_PORT", "")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	// 必須環境変数を持たないため、未設定でもデフォルト値で起動できる
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "./data")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}

	// slogのグローバルロガーがJSON出力に構成されていることを確認する
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_ReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("NTALO_DATA_DIR", "/tmp/ntalo-test")
	t.Setenv("NTALO_PAYMENT_URL", "https://pay.example.com")
	t.Setenv("RATE_LIMIT_GENERATION", "5")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DataDir != "/tmp/ntalo-test" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/ntalo-test")
	}
	if cfg.PaymentURL != "https://pay.example.com" {
		t.Errorf("PaymentURL = %q, want %q", cfg.PaymentURL, "https://pay.example.com")
	}
	if cfg.RateLimitGeneration != 5 {
		t.Errorf("RateLimitGeneration = %d, want 5", cfg.RateLimitGeneration)
	}
}

// TestRun_MigrateCommand_AppliesMigrations はmigrateコマンドが
// データディレクトリを作成し、SQLiteマイグレーションを適用することを検証する。
func TestRun_MigrateCommand_AppliesMigrations(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("NTALO_DATA_DIR", dataDir)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err != nil {
		t.Fatalf("Run(migrate) failed: %v", err)
	}

	// 2回目の実行も冪等に成功する
	if err := Run(&buf, []string{"migrate"}); err != nil {
		t.Fatalf("Run(migrate) second run failed: %v", err)
	}
}

// TestRun_HealthcheckWithoutServer_ReturnsError はサーバー未起動時の
// healthcheckコマンドがエラーを返すことを検証する。
func TestRun_HealthcheckWithoutServer_ReturnsError(t *testing.T) {
	// 誰もlistenしていないポートを指定する
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"healthcheck"}); err == nil {
		t.Fatal("Run(healthcheck) without a server should return error")
	}
}
