package dsp

import "math"

// Pow2Fast1 is a very fast, low-accuracy 2^x approximation built by writing
// x directly into a float32's exponent bits. It is good enough for the
// envelope-control attack/decay/release rate scalars (§4.6), which only need
// to move a rate multiplier smoothly over a couple of octaves.
func Pow2Fast1(x float32) float32 {
	w := float32(1<<23) * (127 + x)
	return math.Float32frombits(uint32(w))
}

// Pow2Fast2 is a second-order polynomial 2^x approximation, accurate enough
// for operator gain (a[i] = 2^(-14+level)) and amplitude-modulation scaling.
func Pow2Fast2(x float32) float32 {
	xi := int32(x)
	if x < 0 {
		xi--
	}
	frac := x - float32(xi)
	result := float32(1) + frac*(0.6565+frac*0.3435)
	bits := int32(math.Float32bits(result))
	newBits := uint32(bits + xi<<23)
	return math.Float32frombits(newBits)
}
