package voice

import (
	"math"
	"testing"

	"github.com/spacejam/dx7render/internal/algorithm"
	"github.com/spacejam/dx7render/internal/patch"
)

func testPatch() *patch.Patch {
	var p patch.Patch
	for i := range p.Operators {
		p.Operators[i].Coarse = 1 // ratio 1.0
		p.Operators[i].Envelope.Rate = [4]uint8{99, 99, 99, 99}
		p.Operators[i].Envelope.Level = [4]uint8{99, 99, 99, 0}
	}
	p.Operators[0].Level = 99
	p.PitchEnvelope.Rate = [4]uint8{99, 99, 99, 99}
	p.PitchEnvelope.Level = [4]uint8{50, 50, 50, 50}
	p.Algorithm = 0
	p.ActiveOperators = 0x3f
	return &p
}

func renderFrames(v *Voice, params Parameters, blocks int) []float32 {
	out := make([]float32, 0, blocks*algorithm.BlockSize)
	block := make([]float32, algorithm.BlockSize)
	aux := make([]float32, algorithm.BlockSize)
	for i := 0; i < blocks; i++ {
		v.Render(params, block, aux)
		out = append(out, block...)
	}
	return out
}

func TestRenderProducesFiniteOutput(t *testing.T) {
	p := testPatch()
	v := New(p, 48000)
	params := DefaultParameters()
	params.Gate = true

	out := renderFrames(v, params, 50)
	for i, s := range out {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("sample %d not finite: %v", i, s)
		}
	}
}

func TestZeroLevelProducesSilence(t *testing.T) {
	p := testPatch()
	for i := range p.Operators {
		p.Operators[i].Level = 0
	}
	v := New(p, 48000)
	params := DefaultParameters()
	params.Gate = true

	out := renderFrames(v, params, 20)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("expected silence, got nonzero sample %d: %v", i, s)
		}
	}
}

func TestNoteOnResetsOperatorPhase(t *testing.T) {
	p := testPatch()
	p.ResetPhase = 1
	v := New(p, 48000)
	params := DefaultParameters()
	params.Gate = true

	_ = renderFrames(v, params, 3)

	params.Gate = false
	_ = renderFrames(v, params, 1)
	for i := range v.kernel.Operators {
		v.kernel.Operators[i].Phase = 12345
	}
	params.Gate = true
	_ = renderFrames(v, params, 1)

	// A fresh voice starts at phase 0 and renders the same note-on block,
	// so after a reset both voices hold the same phases.
	fresh := New(p, 48000)
	_ = renderFrames(fresh, params, 1)

	for i, op := range v.kernel.Operators {
		if op.Phase != fresh.kernel.Operators[i].Phase {
			t.Fatalf("operator %d phase did not reset on note-on", i)
		}
	}
}

func TestTransferFromCarriesEnvelopeState(t *testing.T) {
	p := testPatch()
	v1 := New(p, 48000)
	params := DefaultParameters()
	params.Gate = true
	_ = renderFrames(v1, params, 30)

	v2 := New(p, 48000)
	v2.TransferFrom(v1)

	if v2.gate != v1.gate {
		t.Fatalf("expected gate state to transfer")
	}
	if v2.note != v1.note {
		t.Fatalf("expected note to transfer")
	}
	if v2.kernel != v1.kernel {
		t.Fatalf("expected kernel (phase/feedback) state to transfer")
	}
	if v2.operatorEnvelope != v1.operatorEnvelope || v2.pitchEnvelope != v1.pitchEnvelope {
		t.Fatalf("expected envelope state to transfer")
	}
}

func TestDeterministicRenderGivenSameInputs(t *testing.T) {
	p := testPatch()
	v1 := New(p, 48000)
	v2 := New(p, 48000)
	params := DefaultParameters()
	params.Gate = true

	out1 := renderFrames(v1, params, 40)
	out2 := renderFrames(v2, params, 40)

	if len(out1) != len(out2) {
		t.Fatalf("length mismatch")
	}
	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("sample %d diverged: %v vs %v", i, out1[i], out2[i])
		}
	}
}
