package envelope

import (
	"math"
	"testing"
)

func runOperator(o *Operator, gate bool, rate, adScale, releaseScale float32, blocks int) float32 {
	var v float32
	for i := 0; i < blocks; i++ {
		v = o.RenderScaled(gate, rate, adScale, releaseScale)
	}
	return v
}

func TestOperatorEnvelopeStartsAtZeroAndRises(t *testing.T) {
	o := NewOperator()
	o.Init(1)
	o.Set([4]uint8{99, 50, 50, 50}, [4]uint8{99, 80, 60, 0}, 99)

	first := o.RenderScaled(true, 64, 1, 1)
	if first < 0 {
		t.Fatalf("expected non-negative level at gate-on, got %v", first)
	}
	later := runOperator(&o, true, 64, 1, 1, 200)
	if later < first {
		t.Fatalf("expected level to rise during attack: first=%v later=%v", first, later)
	}
}

func TestOperatorEnvelopeDecaysToZeroOnRelease(t *testing.T) {
	o := NewOperator()
	o.Init(1)
	o.Set([4]uint8{99, 99, 99, 99}, [4]uint8{99, 99, 99, 0}, 99)

	_ = runOperator(&o, true, 64, 1, 1, 2000)
	v := runOperator(&o, false, 64, 1, 1, 20000)
	// L4 = 0 maps to the envelope's level floor, 0.125 * 0.5 = 0.0625, which
	// the voice turns into a gain of about 2^-14 (silence).
	if math.Abs(float64(v)-0.0625) > 1e-3 {
		t.Fatalf("expected envelope to decay to the 0.0625 floor after release, got %v", v)
	}
}

func TestOperatorEnvelopeNeverProducesNonFiniteOutput(t *testing.T) {
	o := NewOperator()
	o.Init(44100.0 / 48000.0)
	o.Set([4]uint8{10, 20, 30, 40}, [4]uint8{99, 50, 25, 0}, 50)

	gate := true
	for i := 0; i < 5000; i++ {
		if i == 2000 {
			gate = false
		}
		v := o.RenderScaled(gate, 64, 1, 1)
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("step %d: non-finite envelope value: %v", i, v)
		}
	}
}

func TestOperatorTransferFromPreservesLevel(t *testing.T) {
	o1 := NewOperator()
	o1.Init(1)
	o1.Set([4]uint8{99, 50, 50, 50}, [4]uint8{99, 80, 60, 0}, 99)
	v1 := runOperator(&o1, true, 64, 1, 1, 500)

	var o2 Operator
	o2.TransferFrom(&o1)

	got := o2.RenderScaled(true, 64, 1, 1)
	if math.Abs(float64(got-v1)) > 0.05 {
		t.Fatalf("expected transferred envelope to continue near prior level: prior=%v got=%v", v1, got)
	}
}

func TestPitchEnvelopeIsZeroWhenLevelsAreFlat(t *testing.T) {
	p := NewPitch()
	p.Init(1)
	p.Set([4]uint8{99, 99, 99, 99}, [4]uint8{50, 50, 50, 50})

	v := runOperator2(&p, true, 64, 1, 1, 500)
	if math.Abs(float64(v)) > 1e-3 {
		t.Fatalf("expected ~0 pitch envelope with flat level 50, got %v", v)
	}
}

func runOperator2(p *Pitch, gate bool, rate, adScale, releaseScale float32, blocks int) float32 {
	var v float32
	for i := 0; i < blocks; i++ {
		v = p.RenderScaled(gate, rate, adScale, releaseScale)
	}
	return v
}
