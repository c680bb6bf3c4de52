// Package algorithm implements the DX7's 32 fixed operator-routing programs
// (spec §4.5) and the operator kernel they drive (spec §4.2): phase
// accumulation, sine lookup, per-block gain interpolation, modulation and
// self-feedback.
//
// Rather than precompiling each algorithm's opcode chain into a single
// fused render call (an optimization spec §4.5 explicitly allows but does
// not require — "the observable output must match the per-operator
// execution"), Execute walks the six operators in index order every block,
// exactly as the per-operator execution model describes. This keeps the
// routing table as the single source of truth and avoids a second,
// harder-to-verify code path.
package algorithm

// Opcode bit layout (spec §4.5):
//
//	bits 0-1: OUT_BUS  (0 = main output, 1 = scratch bus 1, 2 = scratch bus 2)
//	bit  2:   ADD flag (sum into destination instead of overwriting)
//	bits 4-5: IN_BUS   (0 = none/feedback, 1 = scratch 1, 2 = scratch 2)
//	bit  6:   FB_IN flag
//	bit  7:   FB_OUT flag
type Opcode uint8

const (
	outBusMask = 0x03
	addFlag    = 0x04
	inBusShift = 4
	inBusMask  = 0x30
	fbInFlag   = 0x40
	fbOutFlag  = 0x80
)

// OutBus returns the destination bus: 0 main output, 1 or 2 scratch.
func (o Opcode) OutBus() int { return int(o & outBusMask) }

// Additive reports whether this operator's output is summed into its
// destination rather than overwriting it.
func (o Opcode) Additive() bool { return o&addFlag != 0 }

// InBus returns the modulation source bus: 0 means none (PURE or FB), 1 or
// 2 a scratch bus (MOD).
func (o Opcode) InBus() int { return int(o&inBusMask) >> inBusShift }

// FeedbackIn reports whether this operator reads the voice's shared
// feedback taps as its modulation input instead of a scratch bus.
func (o Opcode) FeedbackIn() bool { return o&fbInFlag != 0 }

// FeedbackOut reports whether this operator's output is captured into the
// voice's shared feedback taps after rendering.
func (o Opcode) FeedbackOut() bool { return o&fbOutFlag != 0 }

// IsFeedbackOperator reports whether this operator is both the feedback
// source and sink — the common case for all but two DX7 algorithms, where
// a single self-modulating operator owns the whole loop.
func (o Opcode) IsFeedbackOperator() bool {
	return o.FeedbackIn() && o.FeedbackOut()
}

// IsModulator reports whether this operator's output reaches another
// operator's phase input rather than (only) the main output bus.
func (o Opcode) IsModulator() bool { return o.OutBus() != 0 }

// NumAlgorithms is the number of DX7 routing algorithms.
const NumAlgorithms = 32

// NumOperators is the number of FM operators per voice.
const NumOperators = 6

// BlockSize is N, the fixed number of samples processed together (spec
// §3 Glossary: "Block").
const BlockSize = 64

// Opcodes is the fixed 32x6 routing table, index 0 = DX7 algorithm 1.
// The byte values encode OUT_BUS/ADD/IN_BUS/FB_IN/FB_OUT per spec §4.5;
// they are a compatibility contract (spec Design Notes) and were derived
// by re-encoding the reference implementation's equivalent opcode table
// (_examples/original_source/src/fm/algorithms.rs, OPCODES_6) into this
// bit layout — the two encodings make identical IN_BUS/OUT_BUS/ADD/FB_IN/
// FB_OUT decisions for every algorithm and operator.
var Opcodes = [NumAlgorithms][NumOperators]Opcode{
	{0xc1, 0x11, 0x11, 0x14, 0x01, 0x14},
	{0x01, 0x11, 0x11, 0x14, 0xc1, 0x14},
	{0xc1, 0x11, 0x14, 0x01, 0x11, 0x14},
	{0x41, 0x11, 0x94, 0x01, 0x11, 0x14},
	{0xc1, 0x14, 0x01, 0x14, 0x01, 0x14},
	{0x41, 0x94, 0x01, 0x14, 0x01, 0x14},
	{0xc1, 0x11, 0x05, 0x14, 0x01, 0x14},
	{0x01, 0x11, 0xc5, 0x14, 0x01, 0x14},
	{0x01, 0x11, 0x05, 0x14, 0xc1, 0x14},
	{0x01, 0x05, 0x14, 0xc1, 0x11, 0x14},
	{0xc1, 0x05, 0x14, 0x01, 0x11, 0x14},
	{0x01, 0x05, 0x05, 0x14, 0xc1, 0x14},
	{0xc1, 0x05, 0x05, 0x14, 0x01, 0x14},
	{0xc1, 0x05, 0x11, 0x14, 0x01, 0x14},
	{0x01, 0x05, 0x11, 0x14, 0xc1, 0x14},
	{0xc1, 0x11, 0x02, 0x25, 0x05, 0x14},
	{0x01, 0x11, 0x02, 0x25, 0xc5, 0x14},
	{0x01, 0x11, 0x11, 0xc5, 0x05, 0x14},
	{0xc1, 0x14, 0x14, 0x01, 0x11, 0x14},
	{0x01, 0x05, 0x14, 0xc1, 0x14, 0x14},
	{0x01, 0x14, 0x14, 0xc1, 0x14, 0x14},
	{0xc1, 0x14, 0x14, 0x14, 0x01, 0x14},
	{0xc1, 0x14, 0x14, 0x01, 0x14, 0x04},
	{0xc1, 0x14, 0x14, 0x14, 0x04, 0x04},
	{0xc1, 0x14, 0x14, 0x04, 0x04, 0x04},
	{0xc1, 0x05, 0x14, 0x01, 0x14, 0x04},
	{0x01, 0x05, 0x14, 0xc1, 0x14, 0x04},
	{0x04, 0xc1, 0x11, 0x14, 0x01, 0x14},
	{0xc1, 0x14, 0x01, 0x14, 0x04, 0x04},
	{0x04, 0xc1, 0x11, 0x14, 0x04, 0x04},
	{0xc1, 0x14, 0x04, 0x04, 0x04, 0x04},
	{0xc4, 0x04, 0x04, 0x04, 0x04, 0x04},
}
