// Package payment はプレミアム解放のための決済機能を提供する。
// 決済画面そのものは外部サービスの責務であり、このパッケージは
// チェックアウトの実行結果を受け取るクライアント側だけを持つ。
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// premiumProductID はプレミアム解放の商品ID。
const premiumProductID = "ntalo_premium_unlock"

// CheckoutResult はチェックアウトの実行結果を表す。
type CheckoutResult struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Completed は決済が完了したかを返す。
func (r CheckoutResult) Completed() bool {
	return r.Status == "completed"
}

// CheckoutProvider は決済チェックアウトの実行インターフェースを定義する。
type CheckoutProvider interface {
	// CheckoutPremium はプレミアム解放のチェックアウトを実行する。
	CheckoutPremium(ctx context.Context) (CheckoutResult, error)
}

// Client は外部決済APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// CheckoutPremium はプレミアム解放のチェックアウトを実行する。
func (c *Client) CheckoutPremium(ctx context.Context) (CheckoutResult, error) {
	payload, err := json.Marshal(map[string]string{"productId": premiumProductID})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout", bytes.NewReader(payload))
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("決済APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return CheckoutResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("決済APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return CheckoutResult{}, fmt.Errorf("決済APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result CheckoutResult
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("決済APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return CheckoutResult{}, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ CheckoutProvider = (*Client)(nil)

// LocalProvider は決済エンドポイント未設定時の代替プロバイダ。
// 単一ユーザーのローカル利用を想定し、チェックアウトを常に成功として扱う。
type LocalProvider struct{}

// CheckoutPremium は常に完了済みの結果を返す。
func (LocalProvider) CheckoutPremium(ctx context.Context) (CheckoutResult, error) {
	return CheckoutResult{TransactionID: "local", Status: "completed"}, nil
}

var _ CheckoutProvider = LocalProvider{}
