package content

import (
	"encoding/base64"
	"fmt"
)

// キャッシュキー形式は保存済みデータとの互換のため変更しない。
const (
	imageKeyPrefix   = "img_"
	historyKeyPrefix = "hist_"
	customKeyPrefix  = "custom_story_img_"
	pagesKeyPrefix   = "story_pages_"
)

// descKeyLength はキー生成に使用する記述文字列の先頭長。
const descKeyLength = 30

// CustomImageKeyPrefix はカスタム挿絵キーの接頭辞。
// クリーンアップジョブはこの接頭辞を持つキーを削除対象から除外する。
const CustomImageKeyPrefix = customKeyPrefix

// ImageCacheKey は視覚描写からページ挿絵のキャッシュキーを生成する。
// 記述の先頭30文字のbase64をサフィックスとする。
func ImageCacheKey(visualDescription string) string {
	return imageKeyPrefix + encodeKeyPart(visualDescription)
}

// HistoryCacheKey は豆知識から説明イラストのキャッシュキーを生成する。
func HistoryCacheKey(fact string) string {
	return historyKeyPrefix + encodeKeyPart(fact)
}

// CustomImageKey はカスタム挿絵のキャッシュキーを生成する。
// タイトルとページ添字の組ごとに一意。
func CustomImageKey(title string, pageIndex int) string {
	return fmt.Sprintf("%s%s_%d", customKeyPrefix, title, pageIndex)
}

// PagesCacheKey は生成済み物語ページのキャッシュキーを生成する。
func PagesCacheKey(title string) string {
	return pagesKeyPrefix + title
}

// IsCustomImageKey はキーがカスタム挿絵のものかを返す。
// クリーンアップジョブがカスタム挿絵を保持するために使用する。
func IsCustomImageKey(key string) bool {
	return len(key) >= len(customKeyPrefix) && key[:len(customKeyPrefix)] == customKeyPrefix
}

func encodeKeyPart(s string) string {
	if len(s) > descKeyLength {
		s = s[:descKeyLength]
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}
