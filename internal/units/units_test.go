package units

import (
	"math"
	"testing"
)

func TestOperatorLevelIsMonotonic(t *testing.T) {
	prev := OperatorLevel(0)
	for level := 1; level <= 99; level++ {
		got := OperatorLevel(level)
		if got < prev {
			t.Fatalf("OperatorLevel not monotonic at %d: got %d, prev %d", level, got, prev)
		}
		prev = got
	}
}

func TestPitchEnvelopeLevelIsZeroAtFifty(t *testing.T) {
	if got := PitchEnvelopeLevel(50); got != 0 {
		t.Fatalf("expected PitchEnvelopeLevel(50) == 0, got %v", got)
	}
}

func TestPitchEnvelopeLevelIsAntisymmetric(t *testing.T) {
	for _, l := range []int{0, 10, 30, 49} {
		up := PitchEnvelopeLevel(50 + (50 - l))
		down := PitchEnvelopeLevel(l)
		if math.Abs(float64(up+down)) > 1e-4 {
			t.Fatalf("expected antisymmetry around 50 for level %d: up=%v down=%v", l, up, down)
		}
	}
}

func TestOperatorEnvelopeIncrementIsPositiveAndFinite(t *testing.T) {
	for rate := 0; rate <= 99; rate++ {
		got := OperatorEnvelopeIncrement(rate)
		if got <= 0 || math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
			t.Fatalf("rate %d: expected positive finite increment, got %v", rate, got)
		}
	}
}

func TestLFOFrequencyIsMonotonicallyIncreasing(t *testing.T) {
	prev := LFOFrequency(0)
	for rate := 1; rate <= 99; rate++ {
		got := LFOFrequency(rate)
		if got < prev {
			t.Fatalf("LFOFrequency not monotonic at rate %d: got %v, prev %v", rate, got, prev)
		}
		prev = got
	}
}

func TestNormalizeVelocityIsMonotonic(t *testing.T) {
	prev := NormalizeVelocity(0)
	for i := 1; i <= 16; i++ {
		v := float32(i) / 16
		got := NormalizeVelocity(v)
		if got < prev {
			t.Fatalf("NormalizeVelocity not monotonic at %v: got %v, prev %v", v, got, prev)
		}
		prev = got
	}
}

func TestRateScalingIsOneWithZeroSensitivity(t *testing.T) {
	for _, note := range []float32{0, 21, 60, 84, 127} {
		if got := RateScaling(note, 0); got != 1 {
			t.Fatalf("note %v: expected rate scaling 1 with sensitivity 0, got %v", note, got)
		}
	}
}

func TestKeyboardScalingIsZeroAtBreakPoint(t *testing.T) {
	ks := KeyboardScalingParams{BreakPoint: 60, LeftDepth: 50, RightDepth: 50, LeftCurve: 0, RightCurve: 0}
	got := KeyboardScaling(60+15, ks)
	if math.Abs(float64(got)) > 1e-3 {
		t.Fatalf("expected ~0 at the break point, got %v", got)
	}
}

func TestFrequencyRatioRatioModeIsPositive(t *testing.T) {
	for coarse := 0; coarse < 32; coarse++ {
		got := FrequencyRatio(OperatorParams{Mode: 0, Coarse: coarse, Fine: 0, Detune: 7})
		if got <= 0 || math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
			t.Fatalf("coarse %d: expected positive finite ratio, got %v", coarse, got)
		}
	}
}

func TestFrequencyRatioFixedModeIsFinite(t *testing.T) {
	for coarse := 0; coarse < 4; coarse++ {
		for fine := 0; fine < 100; fine += 25 {
			got := FrequencyRatio(OperatorParams{Mode: 1, Coarse: coarse, Fine: fine, Detune: 7})
			if got <= 0 || math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
				t.Fatalf("coarse %d fine %d: expected positive finite ratio, got %v", coarse, fine, got)
			}
		}
	}
}
