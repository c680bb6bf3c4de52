// Package units implements the DX7 parameter-derivation functions: the pure
// conversions from 0-99 patch bytes into the levels, rates, scaling curves
// and frequency ratios the synthesis engine consumes (spec §4.7).
package units

import "github.com/spacejam/dx7render/internal/dsp"

// CoarseTable holds the 32 semitone offsets used by ratio-mode frequency
// derivation; entry 0 is the DX7's "ratio 0.5", entry 1 "ratio 1", etc.
var CoarseTable = [32]float32{
	-12.000000, 0.000000, 12.000000, 19.019550, 24.000000, 27.863137,
	31.019550, 33.688259, 36.000000, 38.039100, 39.863137, 41.513180,
	43.019550, 44.405276, 45.688259, 46.882687, 48.000000, 49.049554,
	50.039100, 50.975130, 51.863137, 52.707809, 53.513180, 54.282743,
	55.019550, 55.726274, 56.405276, 57.058650, 57.688259, 58.295772,
	58.882687, 59.450356,
}

// AmpModSensitivityTable indexes operator.amp_mod_sensitivity (0-3).
var AmpModSensitivityTable = [4]float32{0, 0.2588, 0.4274, 1.0}

// PitchModSensitivityTable indexes modulation.pitch_mod_sensitivity (0-7).
var PitchModSensitivityTable = [8]float32{
	0, 0.0781250, 0.1562500, 0.2578125, 0.4296875, 0.7187500, 1.1953125, 2.0,
}

// cubeRootTable is used by NormalizeVelocity; 17 entries spanning
// velocity/8 in [0,16].
var cubeRootTable = [17]float32{
	0.0, 0.39685062976, 0.50000000000, 0.57235744065, 0.62996081605,
	0.67860466725, 0.72112502092, 0.75914745216, 0.79370070937, 0.82548197054,
	0.85498810729, 0.88258719406, 0.90856038354, 0.93312785379, 0.95646563396,
	0.97871693135, 1.0,
}

// MinLFOFrequency is the smallest representable LFO rate in Hz.
const MinLFOFrequency = 0.005865

// interpolate performs linear interpolation into table with index scaled by
// size, matching stmlib's interpolate().
func interpolate(table []float32, index, size float32) float32 {
	idx := index * size
	ii := int(idx)
	if ii > len(table)-2 {
		ii = len(table) - 2
	}
	if ii < 0 {
		ii = 0
	}
	frac := idx - float32(ii)
	a := table[ii]
	b := table[ii+1]
	return a + (b-a)*frac
}

// OperatorLevel converts a 0-99 output level to the 0-127 TL-complement
// domain the envelope and gain derivation work in.
func OperatorLevel(level int) int {
	tlc := level
	if level < 20 {
		if tlc < 15 {
			tlc = (tlc * (36 - tlc)) >> 3
		} else {
			tlc = 27 + tlc
		}
	} else {
		tlc += 28
	}
	return tlc
}

// PitchEnvelopeLevel converts a 0-99 pitch-envelope level byte to an octave
// offset in roughly [-4, +4], with a mild saturating curve near the
// extremes.
func PitchEnvelopeLevel(level int) float32 {
	l := (float32(level) - 50) / 32
	tail := l
	if tail < 0 {
		tail = -tail
	}
	tail = tail + 0.02 - 1
	if tail < 0 {
		tail = 0
	}
	return l * (1 + tail*tail*5.3056)
}

// OperatorEnvelopeIncrement converts a 0-99 envelope rate byte to a
// per-sample fractional increment.
func OperatorEnvelopeIncrement(rate int) float32 {
	rateScaled := (rate * 41) >> 6
	mantissa := 4 + (rateScaled & 3)
	exponent := 2 + (rateScaled >> 2)
	return float32(mantissa<<exponent) / float32(1<<24)
}

// PitchEnvelopeIncrement converts a 0-99 pitch-envelope rate byte to a
// per-sample fractional increment.
func PitchEnvelopeIncrement(rate int) float32 {
	r := float32(rate) * 0.01
	return (1 + 192*r*(r*r*r*r+0.3333)) / (21.3 * 44100.0)
}

// LFOFrequency converts a 0-99 LFO rate byte to Hz.
func LFOFrequency(rate int) float32 {
	rateScaled := 1
	if rate != 0 {
		rateScaled = (rate * 165) >> 6
	}
	if rateScaled < 160 {
		rateScaled *= 11
	} else {
		rateScaled *= 11 + ((rateScaled - 160) >> 4)
	}
	return float32(rateScaled) * MinLFOFrequency
}

// LFODelay converts a 0-99 LFO delay byte to the two phase increments
// (hold-then-ramp) the LFO's delay envelope uses.
func LFODelay(delay int) [2]float32 {
	if delay == 0 {
		return [2]float32{100000, 100000}
	}
	d := 99 - delay
	d = (16 + (d & 15)) << (1 + (d >> 4))
	inc0 := float32(d) * MinLFOFrequency
	clamped := d & 0xff80
	if clamped < 0x80 {
		clamped = 0x80
	}
	inc1 := float32(clamped) * MinLFOFrequency
	return [2]float32{inc0, inc1}
}

// NormalizeVelocity pre-scales a 0-1 velocity for the per-operator velocity
// scaling term.
func NormalizeVelocity(velocity float32) float32 {
	cubeRoot := interpolate(cubeRootTable[:], velocity, 16)
	return 16 * (cubeRoot - 0.918)
}

// RateScaling returns the envelope rate multiplier a note/sensitivity pair
// produces.
func RateScaling(note float32, sensitivity int) float32 {
	return dsp.Pow2Fast1(float32(sensitivity) * (note*0.33333 - 7) * 0.03125)
}

// AmpModSensitivity looks up an operator's amplitude-modulation sensitivity
// (0-3).
func AmpModSensitivity(s int) float32 {
	return AmpModSensitivityTable[s]
}

// PitchModSensitivity looks up the patch's pitch-modulation sensitivity
// (0-7).
func PitchModSensitivity(s int) float32 {
	return PitchModSensitivityTable[s]
}

// KeyboardScalingParams mirrors the five keyboard-scaling fields of an
// operator.
type KeyboardScalingParams struct {
	BreakPoint  int
	LeftDepth   int
	RightDepth  int
	LeftCurve   int
	RightCurve  int
}

// KeyboardScaling returns the TL adjustment (in the operator_level domain)
// a given note produces relative to an operator's break point and curve
// settings.
func KeyboardScaling(note float32, ks KeyboardScalingParams) float32 {
	x := note - float32(ks.BreakPoint) - 15
	curve := ks.LeftCurve
	if x > 0 {
		curve = ks.RightCurve
	}

	t := x
	if t < 0 {
		t = -t
	}
	if curve == 1 || curve == 2 {
		if t*0.010467 < 1 {
			t = t * 0.010467
		} else {
			t = 1
		}
		t = t * t * t
		t *= 96
	}
	if curve < 2 {
		t = -t
	}

	depth := ks.LeftDepth
	if x > 0 {
		depth = ks.RightDepth
	}
	return t * float32(depth) * 0.02677
}

// OperatorParams is the subset of an operator's patch bytes FrequencyRatio
// needs.
type OperatorParams struct {
	Mode   int // 0 = ratio, 1 = fixed
	Coarse int
	Fine   int
	Detune int
}

// FrequencyRatio computes the operator frequency described in spec §4.7:
// a ratio to the note frequency in ratio mode, an absolute frequency in Hz
// in fixed mode. The result is always positive; the voice negates it to
// mark fixed mode.
func FrequencyRatio(op OperatorParams) float32 {
	detuneMult := float32(1)
	if op.Mode == 0 && op.Fine != 0 {
		detuneMult = 1 + 0.01*float32(op.Fine)
	}

	var base float32
	if op.Mode == 0 {
		base = CoarseTable[op.Coarse]
	} else {
		base = float32((op.Coarse&3)*100+op.Fine) * 0.39864
	}
	base += (float32(op.Detune) - 7) * 0.015

	return dsp.SemitonesToRatioSafe(base) * detuneMult
}
