// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: content, audio, storage, profile, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeContentLoadFailed    = "CONTENT_LOAD_FAILED"
	ErrCodeOfflineNotDownloaded = "OFFLINE_NOT_DOWNLOADED"
	ErrCodeImageUnavailable     = "IMAGE_UNAVAILABLE"
	ErrCodeAudioFailed          = "AUDIO_FAILED"
	ErrCodeAudioOffline         = "AUDIO_OFFLINE"
	ErrCodeNoProfile            = "NO_PROFILE"
	ErrCodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeStoryNotFound        = "STORY_NOT_FOUND"
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodePaymentFailed        = "PAYMENT_FAILED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
)

// NewContentLoadError は物語本文の取得・生成失敗エラーを生成する。
// セッションはErrorステートに遷移し、ユーザーはライブラリに戻って再試行する。
func NewContentLoadError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeContentLoadFailed,
		Message:  fmt.Sprintf("物語の読み込みに失敗しました: %s", reason),
		Category: "content",
		Action:   "ライブラリに戻ってから、もう一度お試しください。",
	}
}

// NewOfflineNotDownloadedError はオフライン時に未ダウンロードの物語を開こうとした場合のエラーを生成する。
// CONTENT_LOAD_FAILEDと区別可能なサブケースとして扱う。
func NewOfflineNotDownloadedError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeOfflineNotDownloaded,
		Message:  fmt.Sprintf("オフラインのため、未ダウンロードの物語は開けません: %s", title),
		Category: "content",
		Action:   "オンラインに接続するか、事前にダウンロードした物語を選んでください。",
	}
}

// NewImageUnavailableError は画像解決の全段階が失敗した場合のエラーを生成する。
// セッションは継続し、プレースホルダー表示に縮退する。
func NewImageUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeImageUnavailable,
		Message:  "このページの挿絵を用意できませんでした。",
		Category: "content",
		Action:   "物語はそのまま読み進められます。",
	}
}

// NewAudioFailedError は音声生成・再生失敗エラーを生成する。
// 音声コントロールはアイドル状態に戻り、セッションは継続する。
func NewAudioFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAudioFailed,
		Message:  fmt.Sprintf("読み聞かせ音声の再生に失敗しました: %s", reason),
		Category: "audio",
		Action:   "しばらく待ってから、もう一度再生ボタンを押してください。",
	}
}

// NewAudioOfflineError はオフライン時の音声再生要求エラーを生成する。
// 再生リソースは一切作成されない。
func NewAudioOfflineError() *APIError {
	return &APIError{
		Code:     ErrCodeAudioOffline,
		Message:  "読み聞かせ音声はオンライン時のみ利用できます。",
		Category: "audio",
		Action:   "オンラインに接続してからお試しください。",
	}
}

// NewNoProfileError はプロフィール未作成の状態で進捗更新を試みた場合のエラーを生成する。
// オンボーディング完了が前提の契約違反であり、呼び出しに対して致命的として扱う。
func NewNoProfileError() *APIError {
	return &APIError{
		Code:     ErrCodeNoProfile,
		Message:  "プロフィールが作成されていません。",
		Category: "profile",
		Action:   "はじめにプロフィールを作成してください。",
	}
}

// NewStorageUnavailableError は永続ストアにアクセスできない場合のエラーを生成する。
// オフライン保存・カスタム画像機能のみが縮退し、読書セッションは継続する。
func NewStorageUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeStorageUnavailable,
		Message:  fmt.Sprintf("端末内ストレージにアクセスできません: %s", reason),
		Category: "storage",
		Action:   "空き容量を確認してから、もう一度お試しください。",
	}
}

// NewRateLimitedError はプロバイダのレート制限による一時的失敗エラーを生成する。
// 限定回数の指数バックオフ再試行の後に表面化する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "生成サービスが混み合っています。",
		Category: "content",
		Action:   "しばらく待ってから、もう一度お試しください。",
	}
}

// NewStoryNotFoundError はカタログに存在しない物語を指定した場合のエラーを生成する。
func NewStoryNotFoundError(title string) *APIError {
	return &APIError{
		Code:     ErrCodeStoryNotFound,
		Message:  fmt.Sprintf("指定された物語が見つかりません: %s", title),
		Category: "content",
		Action:   "物語のタイトルを確認してください。",
	}
}

// NewSessionNotFoundError は存在しない読書セッションを指定した場合のエラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("指定された読書セッションが見つかりません: %s", sessionID),
		Category: "validation",
		Action:   "物語を開き直してください。",
	}
}

// NewPaymentFailedError は決済プロバイダ呼び出しの失敗エラーを生成する。
func NewPaymentFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentFailed,
		Message:  fmt.Sprintf("決済処理に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから、もう一度お試しください。",
	}
}

// NewInvalidRequestError はリクエスト内容の検証失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
