// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は生成テキスト（物語本文・豆知識・お宝メッセージ）を
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// 生成モデルの出力は信頼できない入力として扱う。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は生成テキストのサニタイズ機能のインターフェースを定義する。
// 生成物語の保存前およびAPI応答時に使用される。
type ContentSanitizerService interface {
	// Sanitize は生成テキストをサニタイズして安全なテキストを返す。
	// 物語本文は基本的にプレーンテキストであり、強調タグ（strong, em, br）のみを
	// 通過させ、script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawText string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: strong, em, br（物語本文の装飾のみ）
//   - 禁止タグ: script, iframe, style, a, img および全てのon*イベント属性
//     （許可リストに含めないことで自動的に除去される）
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 物語本文は子ども向けの読み上げテキストであり、
	// リンク・画像・スクリプトを含む余地はない。
	p.AllowElements("strong", "em", "br")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize は生成テキストをサニタイズして安全なテキストを返す。
func (s *contentSanitizer) Sanitize(rawText string) string {
	return s.policy.Sanitize(rawText)
}
