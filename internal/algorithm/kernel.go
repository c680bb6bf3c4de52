package algorithm

import "github.com/spacejam/dx7render/internal/dsp"

// Operator is the per-operator kernel state carried across blocks: the
// phase accumulator and the gain left over from the end of the previous
// block, used as the starting point for this block's gain ramp (spec
// §4.2 gain interpolation).
type Operator struct {
	Phase uint32
	Gain  float32
}

// Buses holds the four N-sample buffers an algorithm's operators read from
// and write to: the main output, an auxiliary output (spec §4.6's second
// render target), and two scratch buses used to route modulator output to
// carrier input within a block (spec §4.5).
type Buses struct {
	Out, Aux           []float32
	Scratch1, Scratch2 []float32
	hasContents        [3]bool
}

// NewBuses allocates a Buses with N-sample scratch buffers; Out and Aux are
// supplied by the caller (they are the caller's block-output buffers).
func NewBuses(out, aux []float32) *Buses {
	n := len(out)
	return &Buses{
		Out:      out,
		Aux:      aux,
		Scratch1: make([]float32, n),
		Scratch2: make([]float32, n),
	}
}

// beginBlock zeroes the output, aux and scratch buses and resets
// has-contents tracking (spec §4.5 step 1). The main output bus is always
// considered writable.
func (b *Buses) beginBlock() {
	for i := range b.Out {
		b.Out[i] = 0
	}
	for i := range b.Scratch1 {
		b.Scratch1[i] = 0
		b.Scratch2[i] = 0
	}
	for i := range b.Aux {
		b.Aux[i] = 0
	}
	b.hasContents = [3]bool{true, false, false}
}

func (b *Buses) bus(i int) []float32 {
	switch i {
	case 1:
		return b.Scratch1
	case 2:
		return b.Scratch2
	default:
		return b.Out
	}
}

// FeedbackState is the voice-shared one-sample-delay feedback tap pair
// (spec §3/§4.2): "the (n-1) and (n-2) outputs of the designated feedback
// operator". It lives on the voice, never on an operator, because exactly
// one operator per algorithm feeds it (spec Design Notes).
type FeedbackState struct {
	Y0, Y1 float32
}

// FeedbackScale converts a patch feedback level (0-7) into the averaging
// scale the FB kernel applies to its delay taps; feedback 0 disables
// self-modulation entirely.
func FeedbackScale(feedback int) float32 {
	if feedback == 0 {
		return 0
	}
	return float32(int(1)<<uint(feedback)) / 512.0
}

// silenceThreshold is the fixed audibility floor below which an operator's
// gain is treated as inaudible (spec §4.2 "Below-threshold skip"),
// expressed directly in linear gain (the floating-point equivalent of the
// spec's Q24 "1120" constant, 1120/2^24).
const silenceThreshold = 1120.0 / (1 << 24)

// renderBlock runs one operator's kernel over a full block, advancing its
// phase and gain, and writing (or summing) into dst. modulation is nil for
// a PURE operator, the source scratch bus for a MOD operator. When
// feedbackRead is set, the operator's phase input is derived from fbState
// instead of modulation, and feedbackWrite additionally asks the kernel to
// update fbState from the raw (pre-gain) sine samples it produces as it
// goes — the ordinary, single-operator self-feedback case used by all but
// two DX7 algorithms.
func renderBlock(op *Operator, freq uint32, gainTarget float32, modulation []float32, dst []float32, additive bool, fbState *FeedbackState, fbScale float32, feedbackRead, feedbackWrite bool) {
	n := len(dst)
	gain := op.Gain
	if gainTarget > 4 {
		gainTarget = 4
	}
	gainIncrement := (gainTarget - gain) / float32(n)

	phase := op.Phase
	y0, y1 := float32(0), float32(0)
	if feedbackRead || feedbackWrite {
		y0, y1 = fbState.Y0, fbState.Y1
	}

	for i := 0; i < n; i++ {
		phase += freq

		var m float32
		switch {
		case feedbackRead:
			m = (y0 + y1) * fbScale
		case modulation != nil:
			m = modulation[i]
		default:
			m = 0
		}

		raw := dsp.SinePM(phase, m)
		sample := raw * gain

		if feedbackWrite {
			y0 = y1
			y1 = raw
		}

		if additive {
			dst[i] += sample
		} else {
			dst[i] = sample
		}
		gain += gainIncrement
	}

	op.Phase = phase
	op.Gain = gainTarget
	if feedbackWrite {
		fbState.Y0, fbState.Y1 = y0, y1
	}
}

// renderBlockFeedbackIn is the split-feedback-loop approximation used by
// the two DX7 algorithms (4 and 6) whose feedback destination and source
// are different operators. The true hardware behavior chains the whole
// loop sample-by-sample; rendering strictly one full operator block at a
// time (as this package and spec §4.5 both do) cannot reproduce that
// without re-introducing per-sample cross-operator interleaving, so this
// operator instead treats the feedback contribution as constant for the
// whole block, using the tap values the owning FB_OUT operator left behind
// at the end of the *previous* block.
func renderBlockFeedbackIn(op *Operator, freq uint32, gainTarget float32, dst []float32, additive bool, fbState *FeedbackState, fbScale float32) {
	m := (fbState.Y0 + fbState.Y1) * fbScale
	n := len(dst)
	gain := op.Gain
	if gainTarget > 4 {
		gainTarget = 4
	}
	gainIncrement := (gainTarget - gain) / float32(n)

	phase := op.Phase
	for i := 0; i < n; i++ {
		phase += freq
		sample := dsp.SinePM(phase, m) * gain
		if additive {
			dst[i] += sample
		} else {
			dst[i] = sample
		}
		gain += gainIncrement
	}
	op.Phase = phase
	op.Gain = gainTarget
}

// State is the full set of per-voice operator kernel state plus the shared
// feedback taps, as owned by a Voice.
type State struct {
	Operators [NumOperators]Operator
	Feedback  FeedbackState
}

// Execute runs one block of the algorithm program for algo (0-indexed,
// i.e. DX7 algorithm number minus one) across all six operators in index
// order, per spec §4.5's per-block execution model.
//
// freq and gain are the per-operator frequency-as-phase-increment and
// target-gain arrays the Voice derives each block (spec §4.6 step 6).
// feedback is the patch's feedback amount (0-7).
func Execute(algo int, state *State, freq [NumOperators]uint32, gain [NumOperators]float32, feedback int, buses *Buses) {
	buses.beginBlock()
	fbScale := FeedbackScale(feedback)
	ops := Opcodes[algo]

	for i := 0; i < NumOperators; i++ {
		opcode := ops[i]
		op := &state.Operators[i]
		outBus := opcode.OutBus()

		// Below-threshold skip (spec §4.2): if both the block's start and
		// end gain are inaudible, don't bother running the kernel or
		// marking the destination bus written — but still advance the
		// phase by a full block so re-entry into audibility is seamless.
		if op.Gain < silenceThreshold && gain[i] < silenceThreshold {
			op.Phase += freq[i] * BlockSize
			op.Gain = gain[i]
			continue
		}

		dst := buses.bus(outBus)
		additive := opcode.Additive() && buses.hasContents[outBus]

		switch {
		case opcode.FeedbackIn() && opcode.FeedbackOut():
			renderBlock(op, freq[i], gain[i], nil, dst, additive, &state.Feedback, fbScale, true, true)
		case opcode.FeedbackIn():
			renderBlockFeedbackIn(op, freq[i], gain[i], dst, additive, &state.Feedback, fbScale)
		default:
			inBus := opcode.InBus()
			var modulation []float32
			if inBus != 0 && buses.hasContents[inBus] {
				modulation = buses.bus(inBus)
			}
			renderBlock(op, freq[i], gain[i], modulation, dst, additive, &state.Feedback, 0, false, opcode.FeedbackOut())
		}

		buses.hasContents[outBus] = true
	}
}
