package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ntalo/internal/config"
	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/content"
	"github.com/hitoshi/ntalo/internal/database"
	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/handler"
	"github.com/hitoshi/ntalo/internal/library"
	"github.com/hitoshi/ntalo/internal/logger"
	"github.com/hitoshi/ntalo/internal/metrics"
	"github.com/hitoshi/ntalo/internal/middleware"
	"github.com/hitoshi/ntalo/internal/offline"
	"github.com/hitoshi/ntalo/internal/payment"
	"github.com/hitoshi/ntalo/internal/profile"
	"github.com/hitoshi/ntalo/internal/progress"
	"github.com/hitoshi/ntalo/internal/repository"
	"github.com/hitoshi/ntalo/internal/reward"
	"github.com/hitoshi/ntalo/internal/security"
	"github.com/hitoshi/ntalo/internal/session"
	"github.com/hitoshi/ntalo/internal/worker/cleanup"
)

// databaseFileName はデータディレクトリ内のSQLiteファイル名。
const databaseFileName = "ntalo.db"

// maxGenResponseSize は生成プロバイダーからのレスポンスの最大サイズ。
// 挿絵や音声はBase64で返るため、テキストAPIより大きめに確保する。
const maxGenResponseSize = 32 << 20 // 32MB

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("data_dir", cfg.DataDir),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// マイグレーションを適用し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストレージの準備
	// 単一バイナリで完結させるため、serve起動時にも未適用マイグレーションを適用する
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, databaseFileName)
	if err := database.RunMigrations(dbPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	connector := database.NewConnector(dbPath)
	defer connector.Close()

	slog.Info("database ready", slog.String("path", dbPath))

	// 2. リポジトリの初期化
	storyRepo := repository.NewSQLiteStoryRepo(connector)
	cacheRepo := repository.NewSQLiteCacheRepo(connector)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. 生成プロバイダーと疎通監視の初期化
	genHTTPClient := ssrfGuard.NewSafeClient(cfg.GenTimeout, maxGenResponseSize)
	geminiClient := gen.NewGeminiClient(
		genHTTPClient, slog.Default(),
		cfg.GeminiAPIKey, cfg.GeminiBaseURL,
		cfg.GenMaxRetries, cfg.GenInitialDelay,
	)

	conn := connectivity.NewMonitor(slog.Default())

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. ドメインサービスの初期化
	prober := content.NewFSProber(cfg.AssetsDir)
	resolver := content.NewResolver(
		cacheRepo, storyRepo,
		geminiClient, geminiClient,
		conn, prober, sanitizer, ssrfGuard, collector, slog.Default(),
	)

	progressStore := progress.NewStore(cfg.DataDir)

	rewards := reward.NewEngine(
		progressStore, geminiClient, conn, collector, slog.Default(),
		cfg.CharacterDropRate, rand.Float64,
	)

	sessionManager := session.NewManager(
		resolver, progressStore, rewards,
		geminiClient, conn, collector, slog.Default(),
	)

	offlineService := offline.NewService(storyRepo, resolver, conn, slog.Default())
	libraryService := library.NewService(storyRepo)

	var checkout payment.CheckoutProvider
	if cfg.PaymentURL != "" {
		checkout = payment.NewClient(
			&http.Client{Timeout: 10 * time.Second},
			slog.Default(), cfg.PaymentURL, cfg.PaymentAPIKey,
		)
	} else {
		// 決済エンドポイント未設定のローカル運用では即時完了の決済を使う
		checkout = payment.LocalProvider{}
	}
	profileService := profile.NewService(progressStore, checkout, slog.Default())

	// 7. バックグラウンドジョブの起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go conn.RunProbe(ctx, genHTTPClient, cfg.GeminiBaseURL, cfg.ProbeInterval)

	cleanupJob := cleanup.NewCleanupJob(cacheRepo, slog.Default(), cfg.CacheTTL)
	go cleanupJob.RunPeriodic(ctx, cfg.CleanupPeriod)

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitGeneration),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		ProfileService:     profileService,
		LibraryService:     libraryService,
		OfflineService:     offlineService,
		CustomImageService: resolver,
		SessionManager:     sessionManager,

		Connectivity:   conn,
		MetricsHandler: metrics.Handler(registry),
		AssetsDir:      cfg.AssetsDir,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 生成系エンドポイントは応答に時間がかかる
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	// バックグラウンドジョブを停止してからHTTPサーバーを閉じる
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, databaseFileName)
	slog.Info("running database migrations", slog.String("path", dbPath))

	if err := database.RunMigrations(dbPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
