// Package lfo implements the DX7's shared voice LFO: six waveforms, a
// two-stage delay ramp, key-sync, and an 8-bit sample-and-hold PRNG
// (spec §4.4). This replaces the teacher's original single-purpose LFO
// (four generic waveforms, no delay/key-sync) with the full DX7 behavior
// while keeping its struct-with-Set/Reset shape.
package lfo

import (
	"github.com/spacejam/dx7render/internal/dsp"
	"github.com/spacejam/dx7render/internal/units"
)

// Waveform selects one of the DX7's six LFO shapes.
type Waveform uint8

const (
	Triangle Waveform = iota
	RampDown
	RampUp
	Square
	Sine
	SampleAndHold
)

// WaveformFromByte clamps a raw patch byte into a valid Waveform.
func WaveformFromByte(b uint8) Waveform {
	if b > 5 {
		return Triangle
	}
	return Waveform(b)
}

// Params mirrors the patch's modulation parameters needed to configure an
// LFO instance.
type Params struct {
	Rate                int
	Delay               int
	Waveform            Waveform
	ResetPhase          bool
	AmpModDepth         int
	PitchModDepth       int
	PitchModSensitivity int
}

// LFO is the DX7's single shared low-frequency oscillator.
type LFO struct {
	phase          float32
	frequency      float32
	delayPhase     float32
	delayIncrement [2]float32
	value          float32
	randomState    uint8
	randomValue    float32
	oneHz          float32
	ampModDepth    float32
	pitchModDepth  float32
	waveform       Waveform
	resetPhase     bool
}

// New constructs an LFO for the given sample rate, in its default
// (triangle, phase increment of 0.1 cycle per sample, no depth) state.
func New(sampleRate float32) *LFO {
	return &LFO{
		frequency:      0.1,
		delayIncrement: [2]float32{0.1, 0.1},
		oneHz:          1.0 / sampleRate,
		waveform:       Triangle,
		randomState:    0x21,
	}
}

// Set configures rate, delay, waveform, depths and key-sync from the
// patch's modulation parameters (spec §4.7 lfo_frequency/lfo_delay).
func (l *LFO) Set(p Params) {
	l.frequency = units.LFOFrequency(p.Rate) * l.oneHz

	d := units.LFODelay(p.Delay)
	l.delayIncrement[0] = d[0] * l.oneHz
	l.delayIncrement[1] = d[1] * l.oneHz

	l.waveform = p.Waveform
	l.resetPhase = p.ResetPhase

	l.ampModDepth = float32(p.AmpModDepth) * 0.01
	l.pitchModDepth = float32(p.PitchModDepth) * 0.01 * units.PitchModSensitivity(p.PitchModSensitivity)
}

// Reset is invoked on note-on: the delay ramp always restarts, and the
// phase snaps back to zero only if the patch's key-sync bit is set.
func (l *LFO) Reset() {
	if l.resetPhase {
		l.phase = 0
	}
	l.delayPhase = 0
}

// nextRandom advances the 8-bit LCG s <- 179*s + 17 specified by spec §4.4
// for sample-and-hold, and returns it centered to [0,1).
func (l *LFO) nextRandom() float32 {
	l.randomState = l.randomState*179 + 17
	return float32(l.randomState) / 256.0
}

// Step advances the LFO by scale samples (scale is normally the block size
// N), updating both the main waveform phase and the delay ramp.
func (l *LFO) Step(scale float32) {
	l.phase += scale * l.frequency
	if l.phase >= 1 {
		l.phase -= 1
		l.randomValue = l.nextRandom()
	}
	l.value = l.sample()

	idx := 0
	if l.delayPhase >= 0.5 {
		idx = 1
	}
	l.delayPhase += scale * l.delayIncrement[idx]
	if l.delayPhase >= 1 {
		l.delayPhase = 1
	}
}

func (l *LFO) sample() float32 {
	switch l.waveform {
	case Triangle:
		// Midpoint at phase 0 and 0.5, peak at 0.25, trough at 0.75.
		switch {
		case l.phase < 0.25:
			return 0.5 + 2*l.phase
		case l.phase < 0.75:
			return 1.5 - 2*l.phase
		default:
			return 2*l.phase - 1.5
		}
	case RampDown:
		return 1 - l.phase
	case RampUp:
		return l.phase
	case Square:
		if l.phase < 0.5 {
			return 0
		}
		return 1
	case Sine:
		return 0.5 + 0.5*dsp.Sine(l.phase+0.5)
	case SampleAndHold:
		return l.randomValue
	default:
		return 0
	}
}

// DelayRamp is 0 while the delay envelope is holding, ramping 0->1 during
// the second delay phase.
func (l *LFO) DelayRamp() float32 {
	if l.delayPhase < 0.5 {
		return 0
	}
	return (l.delayPhase - 0.5) * 2
}

// PitchMod returns the current pitch-modulation contribution.
func (l *LFO) PitchMod() float32 {
	return (l.value - 0.5) * l.DelayRamp() * l.pitchModDepth
}

// AmpMod returns the current amplitude-modulation contribution.
func (l *LFO) AmpMod() float32 {
	return (1 - l.value) * l.DelayRamp() * l.ampModDepth
}
