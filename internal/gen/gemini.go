package gen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/ntalo/internal/model"
)

const (
	// textModel は物語テキスト生成に使用するモデル。
	textModel = "gemini-2.5-flash"
	// imageModel は挿絵生成に使用するモデル。
	imageModel = "gemini-2.5-flash-image"
	// speechModel は読み上げ音声生成に使用するモデル。
	speechModel = "gemini-2.5-flash-preview-tts"
	// speechVoice は読み上げの話者名。
	speechVoice = "Kore"
)

// paperCutStylePrompt は挿絵の画風指定。すべての挿絵生成に付与される。
const paperCutStylePrompt = `
  Style: Colorful, intricate 3D layered paper-cut art.
  Palette: Rich, vibrant, and saturated colors specifically matching the region's traditional art style.
  Technique: Digital collage imitating physical paper layers. Strong visible drop shadows between layers to create deep depth.
  Mood: Whimsical, folkloric, inviting and magical.
  Constraint: Do not use photorealism. It must look like a handcrafted paper illustration.
`

// ErrNoAPIKey はAPIキー未設定時に返されるエラー。
// 呼び出し元はオフライン相当の縮退動作に切り替える。
var ErrNoAPIKey = errors.New("generation provider API key is not configured")

// GeminiClient はGemini REST APIのクライアント。
// TextGenerator・ImageGenerator・SpeechGeneratorを実装する。
// レート制限（429）とサーバーエラー（5xx）には指数バックオフ付きの
// 有限回リトライを行い、その他の4xxは即座に失敗する。
type GeminiClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	apiKey       string
	baseURL      string
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	sleep        func(context.Context, time.Duration) error // テスト用に差し替え可能
}

var (
	_ TextGenerator   = (*GeminiClient)(nil)
	_ ImageGenerator  = (*GeminiClient)(nil)
	_ SpeechGenerator = (*GeminiClient)(nil)
)

// NewGeminiClient はGeminiClientの新しいインスタンスを生成する。
func NewGeminiClient(httpClient *http.Client, logger *slog.Logger, apiKey, baseURL string, maxRetries int, initialDelay time.Duration) *GeminiClient {
	return &GeminiClient{
		httpClient:   httpClient,
		logger:       logger,
		apiKey:       apiKey,
		baseURL:      baseURL,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     10 * time.Second,
		sleep:        sleepContext,
	}
}

// Available はAPIキーが設定されているかを返す。
func (c *GeminiClient) Available() bool {
	return c.apiKey != ""
}

// generateContentRequest はgenerateContentエンドポイントのリクエストボディ。
type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     json.RawMessage `json:"responseSchema,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig   `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// generateContentResponse はgenerateContentエンドポイントのレスポンスボディ。
type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// storyPagesSchema は物語ページ生成のレスポンススキーマ（構造化出力）。
var storyPagesSchema = json.RawMessage(`{
  "type": "ARRAY",
  "items": {
    "type": "OBJECT",
    "properties": {
      "text": {"type": "STRING"},
      "visualDescription": {"type": "STRING"},
      "historyFact": {"type": "STRING"}
    },
    "required": ["text", "visualDescription", "historyFact"]
  }
}`)

// GenerateStoryPages は指定タイトルの物語を3〜7ページに分けて生成する。
func (c *GeminiClient) GenerateStoryPages(ctx context.Context, title, region, summary string) ([]model.StoryPage, error) {
	contextLine := ""
	if summary != "" {
		contextLine = fmt.Sprintf("The story is about: %s", summary)
	}
	prompt := fmt.Sprintf(`Write a children's story titled %q from %s. %s
  Split the story into 3 to 7 pages, depending on the complexity required to tell it effectively.
  For each page, provide the story text (max 40 words), a visual description for an illustrator (emphasize silhouettes and layers), and a fun short historical or cultural fact related to the story context.`,
		title, region, contextLine)

	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   storyPagesSchema,
		},
	}

	resp, err := c.generateContent(ctx, textModel, req)
	if err != nil {
		return nil, err
	}

	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("物語テキスト生成のレスポンスが空です")
	}

	var pages []model.StoryPage
	if err := json.Unmarshal([]byte(text), &pages); err != nil {
		return nil, fmt.Errorf("物語テキスト生成のレスポンスのパースに失敗しました: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("物語テキスト生成の結果にページが含まれていません")
	}
	return pages, nil
}

// GeneratePageImage は視覚描写からページ挿絵を生成する。
// 返り値はdata URL形式（data:image/png;base64,...）。
func (c *GeminiClient) GeneratePageImage(ctx context.Context, visualDescription string) (string, error) {
	prompt := fmt.Sprintf("Create a stunning, digital colorful paper-cut illustration. %s. %s", visualDescription, paperCutStylePrompt)
	return c.generateImage(ctx, prompt)
}

// GenerateHistoryImage は豆知識の説明イラストを生成する。
func (c *GeminiClient) GenerateHistoryImage(ctx context.Context, fact string) (string, error) {
	prompt := fmt.Sprintf("Create a clear, educational, colorful layered paper-cut style illustration explaining this fact: %q. %s", fact, paperCutStylePrompt)
	return c.generateImage(ctx, prompt)
}

func (c *GeminiClient) generateImage(ctx context.Context, prompt string) (string, error) {
	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	resp, err := c.generateContent(ctx, imageModel, req)
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return "data:image/png;base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", fmt.Errorf("挿絵生成のレスポンスに画像が含まれていません")
}

// GenerateSpeech はテキストから読み上げ音声を生成する。
// 返り値は24kHzモノラルの生PCMバイト列。
func (c *GeminiClient) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	req := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: speechVoice},
				},
			},
		},
	}

	resp, err := c.generateContent(ctx, speechModel, req)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("音声データのデコードに失敗しました: %w", err)
				}
				return pcm, nil
			}
		}
	}
	return nil, fmt.Errorf("音声生成のレスポンスに音声データが含まれていません")
}

// generateContent はリトライ付きでgenerateContentエンドポイントを呼び出す。
func (c *GeminiClient) generateContent(ctx context.Context, modelName string, req generateContentRequest) (*generateContentResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの構築に失敗しました: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, modelName)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.initialDelay, c.maxDelay, attempt-1)
			c.logger.Warn("生成リクエストをリトライします",
				slog.String("model", modelName),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, retryable, err := c.doRequest(ctx, endpoint, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	c.logger.Error("生成リクエストがリトライ上限に達しました",
		slog.String("model", modelName),
		slog.Int("max_retries", c.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return nil, model.NewRateLimitedError()
}

// doRequest は1回のHTTPリクエストを実行する。
// 2番目の返り値はリトライが有効かどうかを示す。
func (c *GeminiClient) doRequest(ctx context.Context, endpoint string, body []byte) (*generateContentResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// ネットワークエラーは接続断の可能性があるためリトライ対象
		return nil, true, fmt.Errorf("生成APIの呼び出しに失敗しました: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	switch ClassifyHTTPStatus(httpResp.StatusCode) {
	case GenResultOK:
		// fallthrough to decode
	case GenResultRetry:
		return nil, true, fmt.Errorf("生成APIがステータス %d を返しました", httpResp.StatusCode)
	default:
		return nil, false, fmt.Errorf("生成APIがステータス %d を返しました", httpResp.StatusCode)
	}

	var resp generateContentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, false, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return &resp, false, nil
}

// firstText はレスポンス先頭候補の最初のテキストパートを返す。
func firstText(resp *generateContentResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// sleepContext はコンテキストのキャンセルを尊重して待機する。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
