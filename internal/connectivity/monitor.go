// Package connectivity はオンライン状態の観測可能なシグナルを提供する。
// 読書セッション・コンテンツ解決・報酬処理はこのシグナルを参照して
// オフライン時の縮退動作に切り替える。
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Monitor はオンライン状態を保持し、変化を購読者へ通知する。
// 状態は外部からのSet（クライアント申告）と、
// 任意のプローブループ（プロバイダーへの疎通確認）の両方で更新される。
type Monitor struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
	logger *slog.Logger
}

// NewMonitor はオンライン状態で初期化したMonitorを生成する。
func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{
		online: true,
		subs:   make(map[int]chan bool),
		logger: logger,
	}
}

// Online は現在のオンライン状態を返す。
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set はオンライン状態を更新する。
// 状態が変化した場合のみ購読者へ通知する。
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	chans := make([]chan bool, 0, len(m.subs))
	for _, ch := range m.subs {
		chans = append(chans, ch)
	}
	m.mu.Unlock()

	m.logger.Info("オンライン状態が変化しました", slog.Bool("online", online))
	for _, ch := range chans {
		// 購読者が追いついていない場合は通知を捨てる（最新状態はOnlineで読める）
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe は状態変化の通知チャネルを返す。
// 返されたキャンセル関数で購読を解除する。
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

// RunProbe は一定間隔でprobeURLへHEADリクエストを送り、
// 到達可否でオンライン状態を更新するループを実行する。
// コンテキストのキャンセルで終了する。
func (m *Monitor) RunProbe(ctx context.Context, client *http.Client, probeURL string, interval time.Duration) {
	m.logger.Info("疎通プローブを開始します",
		slog.String("url", probeURL),
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("疎通プローブを停止します")
			return
		case <-ticker.C:
			m.Set(m.probe(ctx, client, probeURL))
		}
	}
}

// probe は1回の疎通確認を行う。
// ステータスコードは問わず、応答が返ってくれば到達とみなす。
func (m *Monitor) probe(ctx context.Context, client *http.Client, probeURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
