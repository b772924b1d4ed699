// Package audio は読み上げ音声の再生リソース管理とフォーマット変換を提供する。
// 生成プロバイダーが返す生PCM（24kHzモノラル16bit）を扱う。
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// SampleRate は生成音声のサンプリングレート（Hz）。
	SampleRate = 24000
	// NumChannels は生成音声のチャネル数（モノラル）。
	NumChannels = 1
	// BitsPerSample は生成音声のサンプルあたりビット数。
	BitsPerSample = 16
)

// WrapPCM は生PCMバイト列をWAVコンテナに包んで返す。
// HTTPで音声を配信する際のコンテナ化に使用する。
func WrapPCM(pcm []byte) []byte {
	byteRate := SampleRate * NumChannels * BitsPerSample / 8
	blockAlign := NumChannels * BitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmtチャンクサイズ
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCMフォーマット
	binary.LittleEndian.PutUint16(buf[22:24], NumChannels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// PCMDuration は生PCMバイト列の再生時間を返す。
func PCMDuration(pcm []byte) time.Duration {
	samples := len(pcm) / (NumChannels * BitsPerSample / 8)
	return time.Duration(samples) * time.Second / SampleRate
}
