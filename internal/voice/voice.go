// Package voice implements the DX7 Voice: the per-note mutable state and
// single entry point (Render) that ties the envelopes, LFO, parameter
// derivation and algorithm routing together into one rendered block
// (spec §4.6), grounded directly on
// _examples/original_source/src/fm/voice.rs's Voice/Parameters/render_internal.
package voice

import (
	"github.com/spacejam/dx7render/internal/algorithm"
	"github.com/spacejam/dx7render/internal/dsp"
	"github.com/spacejam/dx7render/internal/envelope"
	"github.com/spacejam/dx7render/internal/lfo"
	"github.com/spacejam/dx7render/internal/patch"
	"github.com/spacejam/dx7render/internal/units"
)

// NumOperators is the number of FM operators in every DX7 voice.
const NumOperators = algorithm.NumOperators

// Parameters carries one block's worth of control input into Render.
//
// PitchMod and AmpMod are added on top of the Voice's own LFO contribution,
// so a caller that wants only the patch's built-in LFO can leave both at
// zero; a caller implementing an external mod wheel or aftertouch source
// can add its own contribution here.
type Parameters struct {
	// Gate is the note on/off signal; a rising edge retriggers envelopes.
	Gate bool
	// Sustain, when set, evaluates envelopes at a fixed sample position
	// (via RenderAtSample) instead of advancing them — used for scrubbing
	// a static visualization rather than playing a note in real time.
	Sustain bool
	// Note is the MIDI note number, pitch-bend already applied.
	Note float32
	// Velocity is normalized to [0,1].
	Velocity float32
	// Brightness in [0,1] scales modulator levels; 0.5 is neutral.
	Brightness float32
	// EnvelopeControl in [0,1] scales attack/decay and release rates.
	// At 0.5 attack/decay rates are unmodified; release rates are
	// unmodified at 0.3 and slowed on either side of it (to 0.35x at 0.5).
	EnvelopeControl float32
	// PitchMod and AmpMod are external modulation to add to the Voice's
	// own LFO output.
	PitchMod float32
	AmpMod   float32
}

// DefaultParameters returns the reference implementation's idle/neutral
// parameter set.
func DefaultParameters() Parameters {
	return Parameters{Note: 48, Velocity: 0.5, Brightness: 0.5, EnvelopeControl: 0.5}
}

// Voice owns all per-note state for rendering a single DX7 FM voice: the
// operator kernel (phase + gain + feedback taps), the per-operator and
// pitch envelopes, the shared LFO, and the patch-derived quantities that
// only change when the patch itself changes (spec §3 Voice, §4.6).
type Voice struct {
	patch        *patch.Patch
	sampleRate   float32
	oneHz        float32
	a0           float32
	gateDuration float32

	gate               bool
	note               float32
	normalizedVelocity float32

	operatorEnvelope [NumOperators]envelope.Operator
	pitchEnvelope    envelope.Pitch
	lfo              *lfo.LFO

	ratios        [NumOperators]float32
	levelHeadroom [NumOperators]float32

	kernel algorithm.State

	dirty bool
}

// config holds Voice's optional construction settings, configured via
// VoiceOption.
type config struct {
	gateDurationSeconds float32
}

// VoiceOption configures an optional Voice setting at construction time.
type VoiceOption func(*config)

// WithGateDuration overrides the envelope-control scrubbing window (spec
// §4.6 step 2's "gate_duration", 1.5s on real hardware). Sustain/scrub mode
// samples the envelope as if the gate had been held for EnvelopeControl
// fraction of this window, so callers driving a visualization at a
// non-default tempo can rescale it.
func WithGateDuration(seconds float32) VoiceOption {
	return func(c *config) { c.gateDurationSeconds = seconds }
}

// New constructs a Voice bound to patch p at the given sample rate. The
// envelopes' sample-rate-dependent time scale is derived once here (spec
// §4.6 "new": 44100/sample_rate converts the hardware's native 44.1kHz
// rate constants to whatever rate the caller renders at).
func New(p *patch.Patch, sampleRate float32, opts ...VoiceOption) *Voice {
	cfg := config{gateDurationSeconds: 1.5}
	for _, opt := range opts {
		opt(&cfg)
	}

	v := &Voice{
		patch:        p,
		sampleRate:   sampleRate,
		oneHz:        1.0 / sampleRate,
		a0:           55.0 / sampleRate,
		gateDuration: cfg.gateDurationSeconds * sampleRate,
		lfo:          lfo.New(sampleRate),
		dirty:        true,
	}
	scale := 44100.0 / sampleRate
	for i := range v.operatorEnvelope {
		v.operatorEnvelope[i] = envelope.NewOperator()
		v.operatorEnvelope[i].Init(scale)
	}
	v.pitchEnvelope = envelope.NewPitch()
	v.pitchEnvelope.Init(scale)
	return v
}

// SetPatch rebinds the voice to a new patch; the next Render call
// re-derives every patch-dependent quantity (spec §4.6 step 1).
func (v *Voice) SetPatch(p *patch.Patch) {
	v.patch = p
	v.dirty = true
}

// setup recomputes patch-dependent data: the pitch envelope schedule, each
// operator's envelope schedule and level headroom, and each operator's
// signed frequency ratio (spec §4.6 step 1).
func (v *Voice) setup() {
	if !v.dirty {
		return
	}
	p := v.patch

	v.pitchEnvelope.Set(p.PitchEnvelope.Rate, p.PitchEnvelope.Level)

	v.lfo.Set(lfo.Params{
		Rate:                int(p.Modulation.Rate),
		Delay:               int(p.Modulation.Delay),
		Waveform:            lfo.WaveformFromByte(p.Modulation.Waveform),
		ResetPhase:          p.Modulation.ResetPhase != 0,
		AmpModDepth:         int(p.Modulation.AmpModDepth),
		PitchModDepth:       int(p.Modulation.PitchModDepth),
		PitchModSensitivity: int(p.Modulation.PitchModSensitivity),
	})

	for i := 0; i < NumOperators; i++ {
		op := p.Operators[i]
		level := units.OperatorLevel(int(op.Level))
		v.operatorEnvelope[i].Set(op.Envelope.Rate, op.Envelope.Level, level)
		v.levelHeadroom[i] = float32(127 - level)

		sign := float32(1)
		if op.Mode == patch.Fixed {
			sign = -1
		}
		v.ratios[i] = sign * units.FrequencyRatio(units.OperatorParams{
			Mode:   int(op.Mode),
			Coarse: int(op.Coarse),
			Fine:   int(op.Fine),
			Detune: int(op.Detune),
		})
	}

	v.dirty = false
}

// clampCyclesPerSample keeps a per-sample frequency below Nyquist so the
// phase-increment conversion to a 32-bit accumulator never wraps more than
// once per sample.
func clampCyclesPerSample(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 0.5 {
		return 0.5
	}
	return f
}

// Render produces one block of audio into out (and aux, for algorithms
// whose second output is otherwise silent), advancing every piece of
// per-note state by exactly one block (spec §4.6 render).
func (v *Voice) Render(params Parameters, out, aux []float32) {
	v.setup()

	n := len(out)
	envelopeRate := float32(n)

	adScale := dsp.Pow2Fast1((0.5 - params.EnvelopeControl) * 8)
	controlOffset := params.EnvelopeControl - 0.3
	if controlOffset < 0 {
		controlOffset = -controlOffset
	}
	releaseScale := dsp.Pow2Fast1(-controlOffset * 8)

	gateDuration := v.gateDuration
	envelopeSample := gateDuration * params.EnvelopeControl

	inputNote := params.Note - 24 + float32(v.patch.Transpose)

	var pitchEnvelopeValue float32
	if params.Sustain {
		pitchEnvelopeValue = v.pitchEnvelope.RenderAtSample(envelopeSample, gateDuration)
	} else {
		pitchEnvelopeValue = v.pitchEnvelope.RenderScaled(params.Gate, envelopeRate, adScale, releaseScale)
	}

	noteOn := params.Gate && !v.gate
	v.gate = params.Gate

	if noteOn {
		v.lfo.Reset()
	}
	v.lfo.Step(float32(n))
	lfoPitchMod := v.lfo.PitchMod()
	lfoAmpMod := v.lfo.AmpMod()

	pitchMod := pitchEnvelopeValue + params.PitchMod + lfoPitchMod
	f0 := v.a0 * 0.25 * dsp.SemitonesToRatioSafe(inputNote-9+pitchMod*12)

	if noteOn || params.Sustain {
		v.normalizedVelocity = units.NormalizeVelocity(params.Velocity)
		v.note = inputNote
	}

	if noteOn && v.patch.ResetPhase != 0 {
		for i := range v.kernel.Operators {
			v.kernel.Operators[i].Phase = 0
		}
	}

	var freq [NumOperators]uint32
	var gain [NumOperators]float32

	for i := 0; i < NumOperators; i++ {
		op := v.patch.Operators[i]

		var cyclesPerSample float32
		if v.ratios[i] < 0 {
			cyclesPerSample = -v.ratios[i] * v.oneHz
		} else {
			cyclesPerSample = v.ratios[i] * f0
		}
		freq[i] = uint32(clampCyclesPerSample(cyclesPerSample) * 4294967296.0)

		rateScaling := units.RateScaling(v.note, int(op.RateScaling))

		var level float32
		if params.Sustain {
			level = v.operatorEnvelope[i].RenderAtSample(envelopeSample, gateDuration)
		} else {
			level = v.operatorEnvelope[i].RenderScaled(params.Gate, envelopeRate*rateScaling, adScale, releaseScale)
		}

		kbScaling := units.KeyboardScaling(v.note, units.KeyboardScalingParams{
			BreakPoint: int(op.KeyboardScaling.BreakPoint),
			LeftDepth:  int(op.KeyboardScaling.LeftDepth),
			RightDepth: int(op.KeyboardScaling.RightDepth),
			LeftCurve:  int(op.KeyboardScaling.LeftCurve),
			RightCurve: int(op.KeyboardScaling.RightCurve),
		})
		velocityScaling := v.normalizedVelocity * float32(op.VelocitySensitivity)

		var brightness float32
		if algorithm.Opcodes[v.patch.Algorithm][i].IsModulator() {
			brightness = (params.Brightness - 0.5) * 32
		}

		boost := kbScaling + velocityScaling + brightness
		if boost > v.levelHeadroom[i] {
			boost = v.levelHeadroom[i]
		}
		level += 0.125 * boost

		sensitivity := units.AmpModSensitivity(int(op.AmpModSensitivity))
		levelMod := 1 - sensitivity*(lfoAmpMod+params.AmpMod)
		gain[i] = dsp.Pow2Fast2(-14+level) * levelMod
	}

	buses := algorithm.NewBuses(out, aux)
	algorithm.Execute(int(v.patch.Algorithm), &v.kernel, freq, gain, int(v.patch.Feedback), buses)
}

// TransferFrom copies another voice's running envelope, phase, feedback
// and LFO state into v without retriggering anything, so a new Voice can
// take over a still-decaying note during voice stealing (spec §4.3
// Transfer; a supplemented, non-core feature).
func (v *Voice) TransferFrom(prev *Voice) {
	for i := range v.operatorEnvelope {
		v.operatorEnvelope[i].TransferFrom(&prev.operatorEnvelope[i])
	}
	v.pitchEnvelope.TransferFrom(&prev.pitchEnvelope)
	v.kernel = prev.kernel
	v.gate = prev.gate
	v.note = prev.note
	v.normalizedVelocity = prev.normalizedVelocity
	*v.lfo = *prev.lfo
}
