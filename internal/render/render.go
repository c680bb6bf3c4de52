// Package render implements the rendering driver (spec §4.8): the
// block-processing loop that turns a Patch plus a MIDI note into a
// complete audio buffer, holding the gate for the requested duration and
// then releasing it and tracking the trailing silence until the note has
// fully decayed or a safety cap is reached. Grounded on
// _examples/original_source/src/synth.rs's Dx7Synth::render_note.
package render

import (
	"errors"
	"math"

	"github.com/spacejam/dx7render/internal/algorithm"
	"github.com/spacejam/dx7render/internal/patch"
	"github.com/spacejam/dx7render/internal/voice"
)

// BlockSize is N, the fixed block size the core always renders in.
const BlockSize = algorithm.BlockSize

// DefaultSampleRate is the implementation's default rendering rate (spec
// §6: "48 kHz by default; configurable via Voice construction").
const DefaultSampleRate = 48000

// MaxDuration is the safety cap in seconds on total rendered output (spec
// §4.8 step 6 / §7 InvalidDuration), bounding unbounded tails.
const MaxDuration = 10.0

// TailSilenceDuration is how long a trailing run of near-silent samples
// must last before a released note is considered fully decayed (spec §4.8
// step 6: "equivalent to 100ms").
const TailSilenceDuration = 0.1

// SilenceThreshold is the per-sample amplitude below which a sample counts
// toward the trailing-silence run (spec §4.8 step 6, "e.g. 1e-4").
const SilenceThreshold = 1e-4

// Errors surfaced at the render_patch boundary (spec §7). render_block
// entry points assume already-validated parameters.
var (
	ErrInvalidMidiNote = errors.New("render: midi note out of range [0,127]")
	ErrInvalidVelocity = errors.New("render: velocity out of range [0,127]")
	ErrInvalidDuration = errors.New("render: duration must be positive, finite, and within the safety cap")
	ErrNoPatch         = errors.New("render: no patch assigned")
)

// RenderPatch is the core's offline entry point (spec §6 render_patch):
// given a patch, a MIDI note, a velocity and a duration, it constructs a
// Voice, holds the gate for durationSeconds, releases it, and continues
// rendering until the tail reaches silence or MaxDuration is hit. The
// returned buffer is mono float32 in [-1,1].
func RenderPatch(p *patch.Patch, midiNote, velocity int, durationSeconds float64, sampleRate float32) ([]float32, error) {
	if p == nil {
		return nil, ErrNoPatch
	}
	if midiNote < 0 || midiNote > 127 {
		return nil, ErrInvalidMidiNote
	}
	if velocity < 0 || velocity > 127 {
		return nil, ErrInvalidVelocity
	}
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 || durationSeconds > MaxDuration {
		return nil, ErrInvalidDuration
	}

	v := voice.New(p, sampleRate)

	params := voice.DefaultParameters()
	params.Gate = true
	params.Note = float32(midiNote)
	params.Velocity = float32(velocity) / 127.0

	holdSamples := int(float64(sampleRate) * durationSeconds)
	maxSamples := int(float64(sampleRate) * MaxDuration)
	tailSilenceSamples := int(float64(sampleRate) * TailSilenceDuration)

	out := make([]float32, 0, holdSamples+tailSilenceSamples)
	block := make([]float32, BlockSize)
	aux := make([]float32, BlockSize)

	for len(out) < holdSamples && len(out) < maxSamples {
		v.Render(params, block, aux)
		out = append(out, block...)
	}
	if len(out) > holdSamples {
		out = out[:holdSamples]
	}

	params.Gate = false
	silenceRun := 0
	for len(out) < maxSamples {
		v.Render(params, block, aux)
		out = append(out, block...)

		for _, s := range block {
			if s < 0 {
				s = -s
			}
			if s < SilenceThreshold {
				silenceRun++
			} else {
				silenceRun = 0
			}
		}

		if silenceRun >= tailSilenceSamples {
			trim := silenceRun - tailSilenceSamples
			if trim > 0 && trim <= len(out) {
				out = out[:len(out)-trim]
			}
			break
		}
	}
	if len(out) > maxSamples {
		out = out[:maxSamples]
	}

	for i, s := range out {
		switch {
		case math.IsNaN(float64(s)) || math.IsInf(float64(s), 0):
			out[i] = 0
		case s > 1:
			out[i] = 1
		case s < -1:
			out[i] = -1
		}
	}

	return out, nil
}

// RenderBlock is the embedded-use entry point (spec §6 render_block): a
// single-block call against an already-constructed Voice. Callers are
// responsible for validating parameters themselves (spec §7 "the
// render_block entry points assume validated parameters").
func RenderBlock(v *voice.Voice, params voice.Parameters, out, aux []float32) {
	v.Render(params, out, aux)
}
