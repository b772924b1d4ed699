// Package profile はオンボーディングとユーザープロフィールの管理機能を提供する。
package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/payment"
	"github.com/hitoshi/ntalo/internal/progress"
)

// Avatar は選択可能なアバターの定義を表す。
type Avatar struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// avatars はオンボーディングで提示するアバター一覧。
var avatars = []Avatar{
	{ID: "lion", Name: "Lion", Icon: "🦁"},
	{ID: "elephant", Name: "Elephant", Icon: "🐘"},
	{ID: "zebra", Name: "Zebra", Icon: "🦓"},
	{ID: "giraffe", Name: "Giraffe", Icon: "🦒"},
	{ID: "rhino", Name: "Rhino", Icon: "🦏"},
	{ID: "leopard", Name: "Leopard", Icon: "🐆"},
}

// Avatars はアバター一覧のコピーを返す。
func Avatars() []Avatar {
	out := make([]Avatar, len(avatars))
	copy(out, avatars)
	return out
}

// validAvatarID は指定IDがアバター一覧に存在するかを返す。
func validAvatarID(id string) bool {
	for _, a := range avatars {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Service はプロフィールの作成・取得・更新を提供する。
type Service struct {
	store    *progress.Store
	checkout payment.CheckoutProvider
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store *progress.Store, checkout payment.CheckoutProvider, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		checkout: checkout,
		logger:   logger,
	}
}

// CreateProfile はオンボーディングでプロフィールを新規作成する。
// カスタムアバター（base64画像）が指定された場合はavatarIDの検証を行わない。
func (s *Service) CreateProfile(username, avatarID, customAvatar string) (*model.UserProgress, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewInvalidRequestError("usernameは必須です")
	}
	if customAvatar == "" && !validAvatarID(avatarID) {
		return nil, model.NewInvalidRequestError("未知のavatarIdです: " + avatarID)
	}

	p, err := s.store.Create(username, avatarID, customAvatar)
	if err != nil {
		return nil, err
	}
	s.logger.Info("プロフィールを作成しました", slog.String("avatar_id", avatarID))
	return p, nil
}

// GetProfile は現在のプロフィール（進捗全体）を返す。
// 未作成の場合はNO_PROFILEエラー。オンボーディング判定はこのエラーで行う。
func (s *Service) GetProfile() (*model.UserProgress, error) {
	p, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNoProfileError()
	}
	return p, nil
}

// UpdateProfile はユーザー名とアバターを更新する。
func (s *Service) UpdateProfile(username, avatarID, customAvatar string) (*model.UserProgress, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, model.NewInvalidRequestError("usernameは必須です")
	}
	if customAvatar == "" && !validAvatarID(avatarID) {
		return nil, model.NewInvalidRequestError("未知のavatarIdです: " + avatarID)
	}
	return s.store.UpdateProfile(username, avatarID, customAvatar)
}

// UpgradeToPremium はチェックアウトを実行し、完了時にプレミアムを解放する。
func (s *Service) UpgradeToPremium(ctx context.Context) (*model.UserProgress, error) {
	// 決済前にプロフィールの存在を確認する（未作成なら課金させない）
	if _, err := s.GetProfile(); err != nil {
		return nil, err
	}

	result, err := s.checkout.CheckoutPremium(ctx)
	if err != nil {
		return nil, model.NewPaymentFailedError(err.Error())
	}
	if !result.Completed() {
		return nil, model.NewPaymentFailedError("チェックアウトが完了しませんでした: " + result.Status)
	}

	p, err := s.store.UpgradeToPremium()
	if err != nil {
		return nil, err
	}
	s.logger.Info("プレミアムを解放しました", slog.String("transaction_id", result.TransactionID))
	return p, nil
}

// MarkAppShared はアプリ共有済みフラグを立てる。
func (s *Service) MarkAppShared() (*model.UserProgress, error) {
	return s.store.MarkAppShared()
}
