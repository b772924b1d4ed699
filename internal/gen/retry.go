package gen

import "time"

// GenResult はHTTPステータスコードに基づく生成リクエスト結果の分類。
type GenResult int

const (
	// GenResultOK は生成成功（200）。
	GenResultOK GenResult = iota
	// GenResultRetry はリトライが有効なステータス（429/5xx）。
	GenResultRetry
	// GenResultFatal はリトライしても無駄なステータス（4xxその他）。
	GenResultFatal
)

// ClassifyHTTPStatus はHTTPステータスコードを生成結果に分類する。
// レート制限（429）とサーバーエラー（5xx）のみをリトライ対象とする。
func ClassifyHTTPStatus(statusCode int) GenResult {
	switch {
	case statusCode == 200:
		return GenResultOK
	case statusCode == 429:
		return GenResultRetry
	case statusCode >= 500:
		return GenResultRetry
	default:
		return GenResultFatal
	}
}

// CalculateBackoff は試行回数に基づいて指数バックオフ遅延を計算する。
// initialDelayから2倍ずつ増加し、maxDelayで頭打ちになる。
// attemptは0始まり（初回リトライ前の待機がinitialDelay）。
func CalculateBackoff(initialDelay, maxDelay time.Duration, attempt int) time.Duration {
	delay := initialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	return delay
}
