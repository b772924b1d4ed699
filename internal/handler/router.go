package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	ProfileService     ProfileServiceInterface
	LibraryService     LibraryServiceInterface
	OfflineService     OfflineServiceInterface
	CustomImageService CustomImageServiceInterface
	SessionManager     SessionManagerInterface

	// オンライン状態（ヘルスチェックに含める）
	Connectivity *connectivity.Monitor

	// 運用サーフェス
	MetricsHandler http.Handler
	AssetsDir      string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// 生成系エンドポイント（セッション開始・音声・オフライン保存）には
// プロバイダAPI保護のための独立したレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	profileHandler := NewProfileHandler(deps.ProfileService)
	libraryHandler := NewLibraryHandler(deps.LibraryService, deps.OfflineService)
	imageHandler := NewImageHandler(deps.CustomImageService)
	sessionHandler := NewSessionHandler(deps.SessionManager)

	// --- 運用サーフェス（レート制限の外） ---

	r.Get("/healthz", healthHandler(deps.Connectivity))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 静的挿絵アセット
	if deps.AssetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/",
			http.FileServer(http.Dir(deps.AssetsDir))))
	}

	// --- APIルート ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		generation := deps.RateLimiter.GenerationMiddleware()

		// プロフィール
		r.Route("/api/profile", func(r chi.Router) {
			r.Post("/", profileHandler.CreateProfile)
			r.Get("/", profileHandler.GetProfile)
			r.Patch("/", profileHandler.UpdateProfile)
			r.Post("/premium", profileHandler.UpgradeToPremium)
			r.Post("/share", profileHandler.MarkAppShared)
		})
		r.Get("/api/avatars", profileHandler.ListAvatars)

		// ライブラリー
		r.Route("/api/library", func(r chi.Router) {
			r.Get("/", libraryHandler.ListLibrary)
			r.Get("/{title}", libraryHandler.GetStory)
		})

		// オフライン保存（保存は全ページの生成を伴うため生成系レート制限）
		r.Route("/api/offline", func(r chi.Router) {
			r.Get("/", libraryHandler.ListDownloads)
			r.With(generation).Post("/{title}", libraryHandler.DownloadStory)
			r.Delete("/{title}", libraryHandler.DeleteDownload)
		})

		// カスタム挿絵
		r.Route("/api/stories/{title}/pages/{pageIndex}/image", func(r chi.Router) {
			r.Put("/", imageHandler.SaveCustomImage)
			r.Get("/", imageHandler.GetCustomImage)
			r.Delete("/", imageHandler.DeleteCustomImage)
		})

		// 読書セッション
		r.Route("/api/sessions", func(r chi.Router) {
			// セッション開始は物語生成を伴いうる
			r.With(generation).Post("/", sessionHandler.StartSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.CloseSession)
				r.Post("/next", sessionHandler.NextPage)
				r.Post("/prev", sessionHandler.PrevPage)
				r.Post("/page", sessionHandler.GoToPage)
				r.Post("/swipe", sessionHandler.HandleSwipe)
				r.Post("/bookmark", sessionHandler.ToggleBookmark)

				r.Route("/audio", func(r chi.Router) {
					r.With(generation).Get("/", sessionHandler.PageAudio)
					r.With(generation).Post("/play", sessionHandler.PlayAudio)
					r.Post("/stop", sessionHandler.StopAudio)
					r.Post("/rate", sessionHandler.SetPlaybackRate)
					r.Post("/auto", sessionHandler.SetAutoNarrate)
				})
			})
		})
	})

	return r
}

// healthHandler はサービスの生存確認とオンライン状態を返す。
func healthHandler(conn *connectivity.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		online := true
		if conn != nil {
			online = conn.Online()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"online": online,
		})
	}
}
