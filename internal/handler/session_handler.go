package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/session"
)

// SessionManagerInterface は読書セッションハンドラーが必要とするサービスインターフェース。
type SessionManagerInterface interface {
	Start(ctx context.Context, title string, deepLinkPage int) (*session.View, error)
	Get(id string) (*session.View, error)
	Next(ctx context.Context, id string) (*session.View, error)
	Prev(ctx context.Context, id string) (*session.View, error)
	GoToPage(ctx context.Context, id string, pageIndex int) (*session.View, error)
	HandleSwipe(ctx context.Context, id string, elapsedMs int64, dx, dy float64) (*session.View, error)
	ToggleBookmark(id string) (*session.View, error)
	PlayAudio(ctx context.Context, id string) (*session.View, error)
	StopAudio(id string) (*session.View, error)
	SetPlaybackRate(id string, rate float64) (*session.View, error)
	SetAutoNarrate(id string, enabled bool) (*session.View, error)
	PageAudio(ctx context.Context, id string) ([]byte, error)
	Close(id string) error
}

// SessionHandler は読書セッションのHTTPハンドラー。
type SessionHandler struct {
	manager SessionManagerInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(manager SessionManagerInterface) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// startSessionRequest はセッション開始リクエストのボディ。
// Pageはしおり等からのディープリンク指定。省略時(-1)は保存進捗を復元する。
type startSessionRequest struct {
	Title string `json:"title"`
	Page  *int   `json:"page,omitempty"`
}

// swipeRequest はスワイプ入力のボディ。
type swipeRequest struct {
	ElapsedMs int64   `json:"elapsedMs"`
	DeltaX    float64 `json:"deltaX"`
	DeltaY    float64 `json:"deltaY"`
}

// StartSession は読書セッションを開始する。
// POST /api/sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("titleは必須です"))
		return
	}

	deepLinkPage := -1
	if req.Page != nil {
		if *req.Page < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("pageは0以上である必要があります"))
			return
		}
		deepLinkPage = *req.Page
	}

	view, err := h.manager.Start(r.Context(), req.Title, deepLinkPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetSession はセッション状態のスナップショットを返す。
// GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// NextPage は次ページへ進む。
// POST /api/sessions/{id}/next
func (h *SessionHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PrevPage は前ページへ戻る。
// POST /api/sessions/{id}/prev
func (h *SessionHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.Prev(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GoToPage は指定ページへ直接移動する。
// POST /api/sessions/{id}/page
func (h *SessionHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageIndex int `json:"pageIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	view, err := h.manager.GoToPage(r.Context(), chi.URLParam(r, "id"), req.PageIndex)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSwipe はスワイプ入力を処理する。
// POST /api/sessions/{id}/swipe
func (h *SessionHandler) HandleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	view, err := h.manager.HandleSwipe(r.Context(), chi.URLParam(r, "id"), req.ElapsedMs, req.DeltaX, req.DeltaY)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ToggleBookmark は現在ページのしおりをトグルする。
// POST /api/sessions/{id}/bookmark
func (h *SessionHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.ToggleBookmark(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PlayAudio は読み聞かせ再生をトグルする。
// POST /api/sessions/{id}/audio/play
func (h *SessionHandler) PlayAudio(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.PlayAudio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// StopAudio は再生を停止する。
// POST /api/sessions/{id}/audio/stop
func (h *SessionHandler) StopAudio(w http.ResponseWriter, r *http.Request) {
	view, err := h.manager.StopAudio(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetPlaybackRate は再生速度を変更する。
// POST /api/sessions/{id}/audio/rate
func (h *SessionHandler) SetPlaybackRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Rate <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("rateは正の数である必要があります: "+strconv.FormatFloat(req.Rate, 'f', -1, 64)))
		return
	}

	view, err := h.manager.SetPlaybackRate(chi.URLParam(r, "id"), req.Rate)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetAutoNarrate は自動読み聞かせモードを切り替える。
// POST /api/sessions/{id}/audio/auto
func (h *SessionHandler) SetAutoNarrate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	view, err := h.manager.SetAutoNarrate(chi.URLParam(r, "id"), req.Enabled)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PageAudio は現在ページの読み聞かせ音声をWAVで返す。
// GET /api/sessions/{id}/audio
func (h *SessionHandler) PageAudio(w http.ResponseWriter, r *http.Request) {
	wav, err := h.manager.PageAudio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Write(wav)
}

// CloseSession はセッションを破棄する。
// DELETE /api/sessions/{id}
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
