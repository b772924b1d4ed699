package session

import (
	"context"
	"log/slog"

	"github.com/hitoshi/ntalo/internal/audio"
	"github.com/hitoshi/ntalo/internal/model"
)

// PlayAudio は現在ページの読み聞かせ再生をトグルする。
// 再生中の要求は停止として扱う（再起動ではない）。
// オフライン時の要求は拒否され、再生リソースは一切作成されない。
// 新しい再生の開始前には既存リソースを必ず完全に破棄する。
func (m *Manager) PlayAudio(ctx context.Context, id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.state != StateReady {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}

	// 再生中ならトグルオフ
	if s.player != nil && s.player.Playing() {
		s.stopAudio()
		m.mu.Unlock()
		return m.viewOf(s), nil
	}

	if !m.conn.Online() {
		m.mu.Unlock()
		return nil, model.NewAudioOfflineError()
	}

	// 上書きではなく明示的な破棄
	s.stopAudio()
	epoch := s.epoch
	text := s.pages[s.pageIndex].Text
	rate := s.playbackRate
	m.mu.Unlock()

	pcm, err := m.speechGen.GenerateSpeech(ctx, text)
	if err != nil {
		// 音声の失敗はアイドルに戻すだけで、セッションは継続する
		m.logger.Warn("読み聞かせ音声の生成に失敗しました",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewAudioFailedError(err.Error())
	}

	m.mu.Lock()
	if s.epoch != epoch || s.player != nil || s.state != StateReady {
		// 生成中にページが変わった。古い音声を鳴らしてはならない。
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	s.player = m.newPlayer(pcm, rate)
	m.mu.Unlock()

	return m.viewOf(s), nil
}

// StopAudio は再生を停止する。再生していない場合は何もしない。
func (m *Manager) StopAudio(id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	s.stopAudio()
	m.mu.Unlock()
	return m.viewOf(s), nil
}

// SetPlaybackRate は再生速度を変更する。
// 再生中の場合は再起動せずに残り時間へ即座に適用される。
func (m *Manager) SetPlaybackRate(id string, rate float64) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return m.viewOf(s), nil
	}

	m.mu.Lock()
	s.playbackRate = rate
	if s.player != nil {
		s.player.SetRate(rate)
	}
	m.mu.Unlock()
	return m.viewOf(s), nil
}

// SetAutoNarrate は自動読み聞かせモードを切り替える。
// 有効時は各ページの挿絵解決完了後、何も再生していない場合に限り
// 自動で再生が始まる。手動の再生・停止と競合しない。
func (m *Manager) SetAutoNarrate(id string, enabled bool) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	s.autoNarrate = enabled
	m.mu.Unlock()
	return m.viewOf(s), nil
}

// PageAudio は現在ページの読み聞かせ音声をWAVコンテナで返す。
// HTTP配信用。オフライン時は拒否される。
func (m *Manager) PageAudio(ctx context.Context, id string) ([]byte, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	if !m.conn.Online() {
		return nil, model.NewAudioOfflineError()
	}

	m.mu.Lock()
	if s.state != StateReady {
		m.mu.Unlock()
		return nil, model.NewAudioFailedError("セッションが再生可能な状態ではありません")
	}
	text := s.pages[s.pageIndex].Text
	m.mu.Unlock()

	pcm, err := m.speechGen.GenerateSpeech(ctx, text)
	if err != nil {
		return nil, model.NewAudioFailedError(err.Error())
	}
	return audio.WrapPCM(pcm), nil
}

// startPlaybackLocked は自動読み聞かせの再生開始を予約する。ロック保持前提。
// 音声生成はロック外で行い、完了時にページがまだ同じ場合のみ再生を始める。
func (m *Manager) startPlaybackLocked(ctx context.Context, s *session) {
	epoch := s.epoch
	text := s.pages[s.pageIndex].Text
	rate := s.playbackRate

	go func() {
		pcm, err := m.speechGen.GenerateSpeech(context.WithoutCancel(ctx), text)
		if err != nil {
			m.logger.Warn("自動読み聞かせの音声生成に失敗しました", slog.String("error", err.Error()))
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if s.epoch != epoch || s.player != nil || s.state != StateReady {
			return
		}
		s.player = m.newPlayer(pcm, rate)
	}()
}
