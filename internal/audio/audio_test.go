package audio

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestWrapPCM_Header(t *testing.T) {
	pcm := make([]byte, 48000) // 1秒分（24000サンプル×2バイト）
	wav := WrapPCM(pcm)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != NumChannels {
		t.Errorf("channels = %d, want %d", got, NumChannels)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
}

func TestPCMDuration(t *testing.T) {
	pcm := make([]byte, 48000) // 24000サンプル = 1秒
	if got := PCMDuration(pcm); got != time.Second {
		t.Errorf("PCMDuration = %v, want 1s", got)
	}
}

func TestPlayer_NaturalFinish(t *testing.T) {
	// 約10msの極小PCM
	pcm := make([]byte, 480)
	p := NewPlayer(pcm, 1.0)

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("player did not finish")
	}
	if p.Playing() {
		t.Error("Playing() = true after finish")
	}
}

func TestPlayer_StopIsIdempotent(t *testing.T) {
	pcm := make([]byte, 480000) // 10秒
	p := NewPlayer(pcm, 1.0)

	p.Stop()
	p.Stop()
	if p.Playing() {
		t.Error("Playing() = true after Stop")
	}

	// Stopによる中断ではDoneはクローズされない
	select {
	case <-p.Done():
		t.Error("Done() closed after Stop")
	default:
	}
}

func TestPlayer_SetRateRescalesRemaining(t *testing.T) {
	base := time.Now()
	clock := base
	now := func() time.Time { return clock }

	pcm := make([]byte, 480000) // 原速10秒
	p := newPlayerWithClock(pcm, 1.0, now)
	defer p.Stop()

	// 4秒経過した時点で2倍速に変更 → 残り6秒（原速換算）が3秒（実時間）になる
	clock = base.Add(4 * time.Second)
	p.SetRate(2.0)

	p.mu.Lock()
	remaining := p.remaining
	rate := p.rate
	p.mu.Unlock()

	if remaining != 6*time.Second {
		t.Errorf("remaining = %v, want 6s", remaining)
	}
	if rate != 2.0 {
		t.Errorf("rate = %v, want 2.0", rate)
	}
}

func TestPlayer_SetRateIgnoredAfterStop(t *testing.T) {
	pcm := make([]byte, 480000)
	p := NewPlayer(pcm, 1.0)
	p.Stop()

	// 停止後のレート変更は無視される（パニックしない）
	p.SetRate(1.5)
}

func TestPlayer_InvalidRateDefaultsToNormal(t *testing.T) {
	pcm := make([]byte, 480000)
	p := NewPlayer(pcm, -1)
	defer p.Stop()

	p.mu.Lock()
	rate := p.rate
	p.mu.Unlock()
	if rate != 1.0 {
		t.Errorf("rate = %v, want 1.0", rate)
	}
}
