// Package gen は生成プロバイダー連携機能を提供する。
// 物語テキスト・挿絵・読み上げ音声の生成インターフェースと、
// Gemini REST APIを使用した実装を含む。
package gen

import (
	"context"

	"github.com/hitoshi/ntalo/internal/model"
)

// TextGenerator は物語テキスト生成のインターフェースを定義する。
type TextGenerator interface {
	// GenerateStoryPages は指定タイトルの物語を3〜7ページに分けて生成する。
	// 各ページは本文（最大40語）、挿絵用の視覚描写、文化・歴史の豆知識を持つ。
	GenerateStoryPages(ctx context.Context, title, region, summary string) ([]model.StoryPage, error)
}

// ImageGenerator は挿絵生成のインターフェースを定義する。
// 返り値はdata URL形式（data:image/png;base64,...）。
type ImageGenerator interface {
	// GeneratePageImage は視覚描写からページ挿絵を生成する。
	GeneratePageImage(ctx context.Context, visualDescription string) (string, error)

	// GenerateHistoryImage は豆知識の説明イラストを生成する。
	GenerateHistoryImage(ctx context.Context, fact string) (string, error)
}

// SpeechGenerator は読み上げ音声生成のインターフェースを定義する。
type SpeechGenerator interface {
	// GenerateSpeech はテキストから読み上げ音声を生成する。
	// 返り値は24kHzモノラルの生PCMバイト列。
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}
