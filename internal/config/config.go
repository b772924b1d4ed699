package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	DataDir       string // SQLiteファイルと進捗ドキュメントの格納ディレクトリ
	AssetsDir     string // 静的挿絵アセットのルートディレクトリ
	CacheTTL      time.Duration
	CleanupPeriod time.Duration

	// Provider
	GeminiAPIKey    string
	GeminiBaseURL   string
	GenTimeout      time.Duration
	GenMaxRetries   int
	GenInitialDelay time.Duration

	// Rewards
	CharacterDropRate float64 // レアキャラクター抽選の当選確率

	// Connectivity
	ProbeInterval time.Duration

	// Payment
	PaymentURL    string // 決済プロバイダーのエンドポイント。未設定の場合はローカル決済にフォールバックする
	PaymentAPIKey string

	// Rate Limit
	RateLimitGeneral    int // req/min
	RateLimitGeneration int // req/min（生成系エンドポイント）

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 単一ユーザーのローカルサービスのため必須環境変数はなく、
// すべての項目にデフォルト値を持つ。GEMINI_API_KEYが未設定の場合、
// 生成系機能はオフライン相当に縮退する。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DataDir = getEnvString("NTALO_DATA_DIR", "./data")
	cfg.AssetsDir = getEnvString("NTALO_ASSETS_DIR", "./assets")
	cfg.CacheTTL = getEnvDuration("NTALO_CACHE_TTL", 30*24*time.Hour)
	cfg.CleanupPeriod = getEnvDuration("NTALO_CLEANUP_PERIOD", 24*time.Hour)

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiBaseURL = getEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.GenTimeout = getEnvDuration("NTALO_GEN_TIMEOUT", 30*time.Second)
	cfg.GenMaxRetries = getEnvInt("NTALO_GEN_MAX_RETRIES", 3)
	cfg.GenInitialDelay = getEnvDuration("NTALO_GEN_INITIAL_DELAY", 500*time.Millisecond)

	cfg.CharacterDropRate = getEnvFloat("NTALO_CHARACTER_DROP_RATE", 0.15)

	cfg.ProbeInterval = getEnvDuration("NTALO_PROBE_INTERVAL", 30*time.Second)

	cfg.PaymentURL = os.Getenv("NTALO_PAYMENT_URL")
	cfg.PaymentAPIKey = os.Getenv("NTALO_PAYMENT_API_KEY")

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 240)
	cfg.RateLimitGeneration = getEnvInt("RATE_LIMIT_GENERATION", 30)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
