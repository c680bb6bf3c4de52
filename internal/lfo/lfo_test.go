package lfo

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestWaveformShapes(t *testing.T) {
	cases := []struct {
		name     string
		waveform Waveform
		phase    float32
		want     float32
	}{
		{"triangle at 0", Triangle, 0, 0.5},
		{"triangle at 0.25", Triangle, 0.25, 1.0},
		{"triangle at 0.5", Triangle, 0.5, 0.5},
		{"triangle at 0.75", Triangle, 0.75, 0.0},
		{"rampDown at 0", RampDown, 0, 1.0},
		{"rampDown at 1", RampDown, 0.999, 0.001},
		{"rampUp at 0", RampUp, 0, 0.0},
		{"square below half", Square, 0.1, 0},
		{"square above half", Square, 0.9, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := New(44100)
			l.waveform = c.waveform
			l.phase = c.phase
			got := l.sample()
			if !approxEqual(got, c.want, 0.02) {
				t.Errorf("got %f, want %f", got, c.want)
			}
		})
	}
}

func TestSineWaveformIsZeroToOne(t *testing.T) {
	l := New(44100)
	l.waveform = Sine
	for p := float32(0); p < 1; p += 0.05 {
		l.phase = p
		v := l.sample()
		if v < -0.001 || v > 1.001 {
			t.Fatalf("sine waveform out of [0,1] at phase %f: %f", p, v)
		}
	}
}

func TestSampleAndHoldLatchesOnWrap(t *testing.T) {
	l := New(1000)
	l.Set(Params{Rate: 50, Waveform: SampleAndHold})
	// Step enough samples to cross several phase wraps.
	var values []float32
	for i := 0; i < 2000; i++ {
		l.Step(1)
		values = append(values, l.value)
	}
	distinct := map[float32]bool{}
	for _, v := range values {
		distinct[v] = true
	}
	if len(distinct) < 2 {
		t.Fatalf("expected sample-and-hold to latch multiple distinct values, got %v", distinct)
	}
}

func TestDelayRampHoldsThenRamps(t *testing.T) {
	l := New(100)
	l.Set(Params{Rate: 50, Delay: 50, Waveform: Triangle})
	l.Reset()

	for i := 0; i < 5; i++ {
		l.Step(1)
		if l.DelayRamp() != 0 {
			t.Fatalf("delay ramp should still be holding at step %d", i)
		}
	}

	for i := 0; i < 10000 && l.DelayRamp() == 0; i++ {
		l.Step(1)
	}
	if l.DelayRamp() == 0 {
		t.Fatal("delay ramp never left the hold phase")
	}
}

func TestKeySyncResetsPhaseOnlyWhenEnabled(t *testing.T) {
	l := New(44100)
	l.Set(Params{Rate: 50, Waveform: Triangle, ResetPhase: true})
	l.Step(1000)
	if l.phase == 0 {
		t.Fatal("phase should have advanced before reset")
	}
	l.Reset()
	if l.phase != 0 {
		t.Fatalf("key-sync enabled should reset phase to 0, got %f", l.phase)
	}

	l.Set(Params{Rate: 50, Waveform: Triangle, ResetPhase: false})
	l.Step(1000)
	before := l.phase
	l.Reset()
	if l.phase != before {
		t.Fatalf("key-sync disabled should not reset phase, got %f want %f", l.phase, before)
	}
}

func TestPitchAndAmpModAreZeroWithoutDepth(t *testing.T) {
	l := New(44100)
	l.Set(Params{Rate: 50, Waveform: Sine})
	l.Step(1000)
	if l.PitchMod() != 0 || l.AmpMod() != 0 {
		t.Fatalf("expected zero pitch/amp mod with zero configured depth")
	}
}

func TestFrequencyTracksRateByte(t *testing.T) {
	l := New(44100)
	l.Set(Params{Rate: 0})
	slow := l.frequency
	l.Set(Params{Rate: 99})
	fast := l.frequency
	if !(fast > slow) {
		t.Fatalf("higher rate byte should produce higher frequency: slow=%f fast=%f", slow, fast)
	}
	if math.IsNaN(float64(fast)) || math.IsInf(float64(fast), 0) {
		t.Fatalf("frequency should be finite, got %f", fast)
	}
}
