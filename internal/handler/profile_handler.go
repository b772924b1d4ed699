package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// CreateProfile はオンボーディングでプロフィールを新規作成する。
	CreateProfile(username, avatarID, customAvatar string) (*model.UserProgress, error)
	// GetProfile は現在のプロフィール（進捗全体）を返す。
	GetProfile() (*model.UserProgress, error)
	// UpdateProfile はユーザー名とアバターを更新する。
	UpdateProfile(username, avatarID, customAvatar string) (*model.UserProgress, error)
	// UpgradeToPremium はチェックアウトを実行しプレミアムを解放する。
	UpgradeToPremium(ctx context.Context) (*model.UserProgress, error)
	// MarkAppShared はアプリ共有済みフラグを立てる。
	MarkAppShared() (*model.UserProgress, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileRequest はプロフィール作成・更新リクエストのボディ。
type profileRequest struct {
	Username     string `json:"username"`
	AvatarID     string `json:"avatarId"`
	CustomAvatar string `json:"customAvatar,omitempty"`
}

// CreateProfile はオンボーディングを処理する。
// POST /api/profile
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.CreateProfile(req.Username, req.AvatarID, req.CustomAvatar)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProfile は現在のプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile はプロフィールを更新する。
// PATCH /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.UpdateProfile(req.Username, req.AvatarID, req.CustomAvatar)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpgradeToPremium はプレミアム解放を処理する。
// POST /api/profile/premium
func (h *ProfileHandler) UpgradeToPremium(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.UpgradeToPremium(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MarkAppShared はアプリ共有済みフラグを立てる。
// POST /api/profile/share
func (h *ProfileHandler) MarkAppShared(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.MarkAppShared()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListAvatars は選択可能なアバター一覧を返す。
// GET /api/avatars
func (h *ProfileHandler) ListAvatars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profile.Avatars())
}
