package audio

import (
	"sync"
	"time"
)

// Player は1つの再生リソースのライフサイクルを表す。
// セッションコントローラーはページ遷移・停止要求のたびにStopを呼び、
// 新しい再生を始める前に必ず既存リソースを破棄する。
type Player interface {
	// Playing は再生中かどうかを返す。
	Playing() bool

	// SetRate は再生速度を変更する。再生中の場合、残り時間が即座に再スケールされる。
	SetRate(rate float64)

	// Stop は再生を停止しリソースを解放する。冪等。
	Stop()

	// Done は再生の自然終了時にクローズされるチャネルを返す。
	// Stopによる中断ではクローズされない。
	Done() <-chan struct{}
}

// timerPlayer はタイマーベースのPlayer実装。
// サーバー側では実際の音声出力は行わず、PCM長から算出した再生時間を
// 実時間で進行させて終了イベントを発火する。
type timerPlayer struct {
	mu        sync.Mutex
	timer     *time.Timer
	remaining time.Duration // 現在のレートを適用する前の残り実時間×レート（原速換算）
	startedAt time.Time
	rate      float64
	playing   bool
	done      chan struct{}
	now       func() time.Time // テスト用に差し替え可能
}

var _ Player = (*timerPlayer)(nil)

// NewPlayer はPCMバイト列の再生を開始したPlayerを生成する。
// rateは原速=1.0の再生速度。
func NewPlayer(pcm []byte, rate float64) *timerPlayer {
	return newPlayerWithClock(pcm, rate, time.Now)
}

func newPlayerWithClock(pcm []byte, rate float64, now func() time.Time) *timerPlayer {
	if rate <= 0 {
		rate = 1.0
	}
	p := &timerPlayer{
		remaining: PCMDuration(pcm),
		rate:      rate,
		playing:   true,
		done:      make(chan struct{}),
		now:       now,
	}
	p.startedAt = now()
	p.timer = time.AfterFunc(scaled(p.remaining, rate), p.finish)
	return p
}

// Playing は再生中かどうかを返す。
func (p *timerPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// SetRate は再生速度を変更する。
// 経過分を差し引いた残り時間を新しいレートで再スケールする。
func (p *timerPlayer) SetRate(rate float64) {
	if rate <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}

	// 旧レートでの経過実時間を原速換算で残りから差し引く
	elapsed := p.now().Sub(p.startedAt)
	consumed := time.Duration(float64(elapsed) * p.rate)
	p.remaining -= consumed
	if p.remaining < 0 {
		p.remaining = 0
	}

	p.rate = rate
	p.startedAt = p.now()
	p.timer.Stop()
	p.timer = time.AfterFunc(scaled(p.remaining, rate), p.finish)
}

// Stop は再生を停止しリソースを解放する。冪等。
func (p *timerPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	p.timer.Stop()
}

// Done は再生の自然終了時にクローズされるチャネルを返す。
func (p *timerPlayer) Done() <-chan struct{} {
	return p.done
}

func (p *timerPlayer) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	close(p.done)
}

// scaled は原速換算の残り時間をレート適用後の実時間に変換する。
func scaled(d time.Duration, rate float64) time.Duration {
	return time.Duration(float64(d) / rate)
}
