// Package content は挿絵と物語ページの解決機能を提供する。
// 優先順位付きの挿絵解決チェーン、オフラインスナップショットの参照、
// カスタム挿絵の保存・削除を含む。
package content

import (
	"fmt"
	"os"
	"path/filepath"
)

// AssetProber は静的挿絵アセットの存在確認のインターフェースを定義する。
type AssetProber interface {
	// Exists は相対パスのアセットが存在するかを返す。
	Exists(relPath string) bool
}

// fsProber はファイルシステム上のアセットディレクトリを確認する実装。
type fsProber struct {
	root string
}

// NewFSProber は指定ディレクトリをルートとするAssetProberを生成する。
func NewFSProber(root string) *fsProber {
	return &fsProber{root: root}
}

// Exists は相対パスのアセットが存在するかを返す。
func (p *fsProber) Exists(relPath string) bool {
	info, err := os.Stat(filepath.Join(p.root, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}

// assetRelPath は静的挿絵のアセット相対パスを返す。
// ページ番号は1始まり。
func assetRelPath(assetID, pageIndex int) string {
	return fmt.Sprintf("Picture %d_%d.png", assetID, pageIndex+1)
}

// legacyRelPath は旧形式の挿絵アセット相対パスを返す。
// ページ番号は1始まり。
func legacyRelPath(storyID string, pageIndex int) string {
	return fmt.Sprintf("stories/%s/page_%d.png", storyID, pageIndex+1)
}

// assetURL はクライアントへ返す静的挿絵のURLパスを返す。
func assetURL(assetID, pageIndex int) string {
	return fmt.Sprintf("/assets/Picture %d_%d.png", assetID, pageIndex+1)
}

// legacyURL はクライアントへ返す旧形式挿絵のURLパスを返す。
func legacyURL(storyID string, pageIndex int) string {
	return fmt.Sprintf("/assets/stories/%s/page_%d.png", storyID, pageIndex+1)
}
