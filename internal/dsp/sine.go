// Package dsp provides the shared lookup tables and numeric helpers the FM
// engine builds on: an interpolated sine table, phase-modulated sine lookup,
// and semitone/frequency conversions.
package dsp

import "math"

const (
	sineLUTBits = 9
	sineLUTSize = 1 << sineLUTBits // 512 entries per cycle
)

// sineTable holds one extra trailing sample so interpolation never reads out
// of bounds at the wraparound point.
var sineTable [sineLUTSize + 1]float32

func init() {
	for i := 0; i < sineLUTSize; i++ {
		sineTable[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(sineLUTSize)))
	}
	sineTable[sineLUTSize] = sineTable[0]
}

// interpolateWrap performs linear interpolation into table, treating index as
// a fractional cycle count (0..1 repeating).
func interpolateWrap(table []float32, index float32) float32 {
	index -= float32(int32(index))
	if index < 0 {
		index++
	}
	index *= sineLUTSize
	i := int32(index)
	frac := index - float32(i)
	a := table[i]
	b := table[i+1]
	return a + (b-a)*frac
}

// Sine returns sin(2*pi*phase) for phase expressed as a fractional cycle
// count; it wraps for any real phase, matching stmlib's sine().
func Sine(phase float32) float32 {
	return interpolateWrap(sineTable[:], phase)
}

// SinePM evaluates the sine table at a 32-bit wrapping phase accumulator
// offset by a phase-modulation amount pm expressed in cycles (1.0 shifts
// the phase by one full period), matching stmlib's sine_pm(). pm may range
// roughly ±32 cycles' worth of modulation index without losing precision.
func SinePM(phase uint32, pm float32) float32 {
	const maxUint32 = 4294967296.0
	const maxIndex = 32
	const offset = float32(maxIndex)
	const scale = maxUint32 / (maxIndex * 2.0)

	phaseOffset := uint32((pm + offset) * scale)
	multiplier := uint32(maxIndex * 2)
	p := phase + phaseOffset*multiplier

	integral := p >> (32 - sineLUTBits)
	fractional := float32(p<<sineLUTBits) / maxUint32
	a := sineTable[integral]
	b := sineTable[integral+1]
	return a + (b-a)*fractional
}

// SemitonesToRatio converts a semitone offset to a frequency multiplier.
func SemitonesToRatio(semitones float32) float32 {
	return float32(math.Pow(2, float64(semitones)/12))
}

// SemitonesToRatioSafe is SemitonesToRatio with range reduction so very
// large or very negative semitone offsets (extreme pitch envelopes/LFO
// depths) stay within float32 precision.
func SemitonesToRatioSafe(semitones float32) float32 {
	scale := float32(1.0)
	for semitones > 120 {
		semitones -= 120
		scale *= 1024
	}
	for semitones < -120 {
		semitones += 120
		scale /= 1024
	}
	return scale * SemitonesToRatio(semitones)
}
