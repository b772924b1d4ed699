package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ntalo/internal/library"
	"github.com/hitoshi/ntalo/internal/model"
)

// LibraryServiceInterface はライブラリーハンドラーが必要とするサービスインターフェース。
type LibraryServiceInterface interface {
	// List はカタログ全件をダウンロード状態つきで返す。
	List(ctx context.Context) ([]library.Entry, error)
	// Get は指定タイトルの項目を返す。
	Get(ctx context.Context, title string) (*library.Entry, error)
}

// OfflineServiceInterface はオフライン保存ハンドラーが必要とするサービスインターフェース。
type OfflineServiceInterface interface {
	// BuildSnapshot は物語をオフライン用に完全実体化して保存する。
	BuildSnapshot(ctx context.Context, title string) (*model.OfflineStory, error)
	// ListStories は保存済みスナップショットの一覧を返す。
	ListStories(ctx context.Context) ([]*model.OfflineStory, error)
	// DeleteStory はスナップショットを削除する。
	DeleteStory(ctx context.Context, title string) error
}

// LibraryHandler はカタログとオフライン保存のHTTPハンドラー。
type LibraryHandler struct {
	library LibraryServiceInterface
	offline OfflineServiceInterface
}

// NewLibraryHandler はLibraryHandlerを生成する。
func NewLibraryHandler(libraryService LibraryServiceInterface, offlineService OfflineServiceInterface) *LibraryHandler {
	return &LibraryHandler{
		library: libraryService,
		offline: offlineService,
	}
}

// titleParam はURLパスパラメータから物語タイトルを復元する。
// タイトルには空白が含まれるためパスエスケープされている。
func titleParam(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	title, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return title
}

// ListLibrary はカタログ全件を返す。
// GET /api/library
func (h *LibraryHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.library.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetStory はカタログの1項目を返す。
// GET /api/library/{title}
func (h *LibraryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	entry, err := h.library.Get(r.Context(), titleParam(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DownloadStory は物語をオフライン保存する。
// POST /api/offline/{title}
func (h *LibraryHandler) DownloadStory(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.offline.BuildSnapshot(r.Context(), titleParam(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// ListDownloads は保存済みスナップショットの一覧を返す。
// GET /api/offline
func (h *LibraryHandler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	stories, err := h.offline.ListStories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if stories == nil {
		stories = []*model.OfflineStory{}
	}
	writeJSON(w, http.StatusOK, stories)
}

// DeleteDownload はスナップショットを削除する。
// DELETE /api/offline/{title}
func (h *LibraryHandler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	if err := h.offline.DeleteStory(r.Context(), titleParam(r)); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
