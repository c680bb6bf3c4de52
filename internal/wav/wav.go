// Package wav encodes rendered mono float32 buffers into WAV files. This
// is a supplemented, non-core concern (spec §1 places WAV encoding out of
// the core's scope) grounded on the teacher's offline.go
// EncodeWAVFloat32LE for the float32 path, and on
// original_source/src/wav_writer.rs's WavOutput (hound-backed, 16-bit PCM
// mono) for the PCM16 path most DX7 tooling actually expects.
package wav

import (
	"encoding/binary"
	"math"
)

func writeHeader(out []byte, dataSize, sampleRate, channels, bitsPerSample int, audioFormat uint16) {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	chunkSize := 36 + dataSize

	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], audioFormat)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(bitsPerSample))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
}

// EncodeFloat32 encodes mono float32 samples into a 32-bit IEEE-float WAV
// file (audio format 3).
func EncodeFloat32(samples []float32, sampleRate int) []byte {
	const channels, bits = 1, 32
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	writeHeader(out, dataSize, sampleRate, channels, bits, 3)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}

// EncodePCM16 encodes mono float32 samples into a 16-bit PCM WAV file
// (audio format 1), clamping to [-1,1] and mapping non-finite samples to
// silence, matching WavOutput::write_samples's handling.
func EncodePCM16(samples []float32, sampleRate int) []byte {
	const channels, bits = 1, 16
	dataSize := len(samples) * 2
	out := make([]byte, 44+dataSize)
	writeHeader(out, dataSize, sampleRate, channels, bits, 1)
	for i, s := range samples {
		var pcm int16
		if !math.IsNaN(float64(s)) && !math.IsInf(float64(s), 0) {
			clamped := s
			if clamped > 1 {
				clamped = 1
			} else if clamped < -1 {
				clamped = -1
			}
			pcm = int16(clamped * 32767)
		}
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(pcm))
	}
	return out
}
