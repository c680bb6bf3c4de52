// Package audio streams a rendered DX7 note buffer through the system
// audio device, for `cmd/dx7render -play`'s optional live-listening path
// (spec's rendering core has no I/O of its own; this is a supplemented,
// non-core feature). Adapted from the teacher's internal/audio/stream.go:
// the ebiten/oto-backed Player and the generic SampleSource/Read bridge are
// kept, but BufferSource replaces the teacher's ad hoc playback sources
// with one shaped specifically around a finished RenderPatch buffer
// (mono float32 in [-1,1]), and Player now takes a DX7-sized PlayerOption
// set (currently playback volume) in place of the teacher's bare
// constructor.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 samples on demand.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// BufferSource streams a single rendered mono note buffer (as produced by
// internal/render.RenderPatch) as interleaved stereo, duplicating the mono
// signal into both channels and reporting Finished once the buffer is
// exhausted so playback stops on its own.
type BufferSource struct {
	samples []float32
	pos     int
}

// NewBufferSource wraps a rendered mono buffer for playback.
func NewBufferSource(samples []float32) *BufferSource {
	return &BufferSource{samples: samples}
}

func (b *BufferSource) Process(dst []float32) {
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		var s float32
		if b.pos < len(b.samples) {
			s = b.samples[b.pos]
			b.pos++
		}
		dst[i*2] = s
		dst[i*2+1] = s
	}
}

// Finished reports whether the whole rendered note has been streamed out.
func (b *BufferSource) Finished() bool { return b.pos >= len(b.samples) }

type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		u := math.Float32bits(r.buf[i])
		binary.LittleEndian.PutUint32(p[i*4:], u)
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// playerConfig holds Player's optional settings, configured via PlayerOption.
type playerConfig struct {
	volume float64
}

// PlayerOption configures an optional Player setting.
type PlayerOption func(*playerConfig)

// WithVolume sets the playback volume (0 silent, 1 full scale, default 1).
// Rendered DX7 test vectors are already normalized to [-1,1] (spec §4.8
// step 6), so this exists for listening comfort, not signal correctness.
func WithVolume(v float64) PlayerOption {
	return func(c *playerConfig) { c.volume = v }
}

func NewPlayer(sampleRate int, source SampleSource, opts ...PlayerOption) (*Player, error) {
	cfg := playerConfig{volume: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	pl.SetVolume(cfg.volume)
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
