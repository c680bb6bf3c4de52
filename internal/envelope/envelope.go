// Package envelope implements the DX7's four-stage piecewise envelope
// (spec §4.3), in the floating-point "reshaped ascending" representation
// sanctioned as an alternative by spec §4.1/§9: ascending segments clamp
// both endpoints to a minimum and rescale phase before interpolating, which
// reproduces the hardware's jump-then-decelerate attack shape without
// needing Q24 integer state.
package envelope

import "github.com/spacejam/dx7render/internal/units"

const numStages = 4

// previousLevel is a sentinel meaning "use the level this stage decays
// from", matching the envelope's own running level at stage transition.
const previousLevel = -100.0

// generic is the shared four-stage envelope core used by both the operator
// and pitch envelope, parameterized only by whether ascending segments get
// the reshape-ascending treatment.
type generic struct {
	reshapeAscending bool

	stage     int
	phase     float32
	start     float32
	increment [numStages]float32
	level     [numStages]float32
	scale     float32
}

func newGeneric(reshapeAscending bool) generic {
	g := generic{reshapeAscending: reshapeAscending}
	g.reset()
	return g
}

func (g *generic) reset() {
	g.stage = numStages - 1
	g.phase = 1
	g.start = 0
	g.scale = 1
	for i := range g.increment {
		g.increment[i] = 0.001
		g.level[i] = 1.0 / float32(int(1)<<i)
	}
	g.level[numStages-1] = 0
}

func (g *generic) init(scale float32) {
	g.scale = scale
	g.stage = numStages - 1
	g.phase = 1
	g.start = 0
	for i := range g.increment {
		g.increment[i] = 0.001
		g.level[i] = 1.0 / float32(int(1)<<i)
	}
	g.level[numStages-1] = 0
}

// renderScaled advances the envelope by one block/sample, honoring gate
// edges and a rate/ad/release scaling triple (spec §4.6 step 2, voice-level
// envelope-control scrubbing).
func (g *generic) renderScaled(gate bool, rate, adScale, releaseScale float32) float32 {
	if gate {
		if g.stage == numStages-1 {
			g.start = g.value()
			g.stage = 0
			g.phase = 0
		}
	} else {
		if g.stage != numStages-1 {
			g.start = g.value()
			g.stage = numStages - 1
			g.phase = 0
		}
	}

	scaleFactor := adScale
	if g.stage == numStages-1 {
		scaleFactor = releaseScale
	}
	g.phase += g.increment[g.stage] * rate * scaleFactor

	if g.phase >= 1 {
		if g.stage >= numStages-2 {
			g.phase = 1
		} else {
			g.phase = 0
			g.stage++
		}
		g.start = previousLevel
	}

	return g.value()
}

// renderAtSample evaluates the envelope at an absolute sample position
// (envelope "scrubbing"), used when Parameters.Sustain holds the voice at a
// fixed point in time rather than advancing it block by block.
func (g *generic) renderAtSample(t, gateDuration float32) float32 {
	if t > gateDuration {
		phase := (t - gateDuration) * g.increment[numStages-1]
		if phase >= 1 {
			return g.level[numStages-1]
		}
		sustainValue := g.renderAtSample(gateDuration, gateDuration)
		return g.valueAt(numStages-1, phase, sustainValue)
	}

	stage := 0
	remaining := t
	for i := 0; i < numStages-1; i++ {
		stageDuration := 1.0 / g.increment[i]
		if remaining < stageDuration {
			stage = i
			break
		}
		remaining -= stageDuration
		stage = i + 1
	}
	if stage == numStages-1 {
		remaining -= gateDuration
		if remaining <= 0 {
			return g.level[numStages-2]
		} else if remaining*g.increment[numStages-1] > 1 {
			return g.level[numStages-1]
		}
	}

	return g.valueAt(stage, remaining*g.increment[stage], previousLevel)
}

func (g *generic) value() float32 {
	return g.valueAt(g.stage, g.phase, g.start)
}

func (g *generic) valueAt(stage int, phase float32, startLevel float32) float32 {
	var from float32
	if startLevel == previousLevel {
		from = g.level[(stage+numStages-1)%numStages]
	} else {
		from = startLevel
	}
	to := g.level[stage]

	if g.reshapeAscending && from < to {
		if from < 6.7 {
			from = 6.7
		}
		if to < 6.7 {
			to = 6.7
		}
		phase *= (2.5 - phase) * 0.666667
	}

	return phase*(to-from) + from
}

// Operator is the four-stage, reshaped-ascending amplitude envelope applied
// to one FM operator.
type Operator struct {
	env generic
}

// NewOperator constructs an operator envelope in its idle (fully released)
// state.
func NewOperator() Operator {
	return Operator{env: newGeneric(true)}
}

// Init sets the envelope's sample-rate-dependent time scale (spec §4.6
// "new": envelope_scale = 44100/sample_rate * per-sample unit).
func (o *Operator) Init(scale float32) { o.env.init(scale) }

// Set configures the envelope from a patch operator's four rates/levels
// plus the patch-derived global output level offset, reproducing the DX7's
// plateau and jump quirks (spec §4.3).
func (o *Operator) Set(rate, level [4]uint8, globalLevel int) {
	for i := 0; i < 4; i++ {
		levelScaled := units.OperatorLevel(int(level[i]))
		levelScaled = (levelScaled &^ 1) + globalLevel - 133
		v := float32(0.5)
		if levelScaled >= 1 {
			v = float32(levelScaled)
		}
		o.env.level[i] = 0.125 * v
	}

	for i := 0; i < 4; i++ {
		increment := units.OperatorEnvelopeIncrement(int(rate[i]))
		from := o.env.level[(i+4-1)%4]
		to := o.env.level[i]

		switch {
		case from == to:
			increment *= 0.6
			if i == 0 && level[i] == 0 {
				increment *= 20
			}
		case from < to:
			fromClamped := from
			if fromClamped < 6.7 {
				fromClamped = 6.7
			}
			toClamped := to
			if toClamped < 6.7 {
				toClamped = 6.7
			}
			if fromClamped == toClamped {
				increment = 1
			} else {
				increment *= 7.2 / (toClamped - fromClamped)
			}
		default:
			increment *= 1.0 / (from - to)
		}
		o.env.increment[i] = increment * o.env.scale
	}
}

// RenderScaled advances the envelope by one block and returns the new
// level.
func (o *Operator) RenderScaled(gate bool, rate, adScale, releaseScale float32) float32 {
	return o.env.renderScaled(gate, rate, adScale, releaseScale)
}

// RenderAtSample evaluates the envelope at an absolute sample position.
func (o *Operator) RenderAtSample(t, gateDuration float32) float32 {
	return o.env.renderAtSample(t, gateDuration)
}

// TransferFrom copies another operator envelope's running state into o
// without retriggering it, for voice-stealing (spec §4.3 "Transfer").
func (o *Operator) TransferFrom(prev *Operator) {
	o.env = prev.env
}

// Pitch is the four-stage, non-reshaped pitch-modulation envelope.
type Pitch struct {
	env generic
}

// NewPitch constructs a pitch envelope in its idle state.
func NewPitch() Pitch {
	return Pitch{env: newGeneric(false)}
}

// Init sets the envelope's sample-rate-dependent time scale.
func (p *Pitch) Init(scale float32) { p.env.init(scale) }

// Set configures the envelope from the patch's four pitch-envelope
// rates/levels (no output-level offset, no rate scaling per spec §4.3).
func (p *Pitch) Set(rate, level [4]uint8) {
	for i := 0; i < 4; i++ {
		p.env.level[i] = units.PitchEnvelopeLevel(int(level[i]))
	}
	for i := 0; i < 4; i++ {
		from := p.env.level[(i+4-1)%4]
		to := p.env.level[i]
		increment := units.PitchEnvelopeIncrement(int(rate[i]))
		if from != to {
			d := from - to
			if d < 0 {
				d = -d
			}
			increment *= 1.0 / d
		} else if i != 3 {
			increment = 0.2
		}
		p.env.increment[i] = increment * p.env.scale
	}
}

// RenderScaled advances the envelope by one block and returns the new
// level, in octaves.
func (p *Pitch) RenderScaled(gate bool, rate, adScale, releaseScale float32) float32 {
	return p.env.renderScaled(gate, rate, adScale, releaseScale)
}

// RenderAtSample evaluates the envelope at an absolute sample position.
func (p *Pitch) RenderAtSample(t, gateDuration float32) float32 {
	return p.env.renderAtSample(t, gateDuration)
}

// TransferFrom copies another pitch envelope's running state into p without
// retriggering it.
func (p *Pitch) TransferFrom(prev *Pitch) {
	p.env = prev.env
}
