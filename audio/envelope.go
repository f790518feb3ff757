package audio

import (
	"fmt"
	"math"
	"strings"
)

// State is the stage an Envelope is in.
type State int

const (
	StateIdle State = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttack:
		return "attack"
	case StateDecay:
		return "decay"
	case StateSustain:
		return "sustain"
	case StateRelease:
		return "release"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Curve selects the shape of the attack, decay and release stages.
type Curve int

const (
	CurveExponential Curve = iota
	CurveLinear
)

func (c Curve) String() string {
	if c == CurveLinear {
		return "linear"
	}
	return "exp"
}

func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(s) {
	case "exp", "exponential":
		return CurveExponential, nil
	case "lin", "linear":
		return CurveLinear, nil
	default:
		return CurveExponential, fmt.Errorf("not a valid curve type: %v", s)
	}
}

// finishedLevel is the level below which a released envelope is considered silent.
const finishedLevel = 1e-5

// EnvelopeParams holds the user facing envelope settings. Times are in seconds.
type EnvelopeParams struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
	Curve   Curve
}

func DefaultEnvelopeParams() EnvelopeParams {
	return EnvelopeParams{
		Attack:  0.01,
		Decay:   0.05,
		Sustain: 0.7,
		Release: 0.1,
		Curve:   CurveExponential,
	}
}

// stage holds the derived timing of one time based stage.
type stage struct {
	seconds float64
	alpha   float64 // one-pole coefficient, exponential curve
	samples int     // length of the stage in samples, both curves
	elapsed int
}

func (s *stage) update(sampleRate float64) {
	s.alpha = onePoleCoefficient(s.seconds, sampleRate)
	s.samples = stageSamples(s.seconds, sampleRate)
}

// Envelope is an ADSR generator producing one amplitude value per call to Step.
// The level only changes inside Step; setters recompute the stage timing
// without touching state, level or elapsed counters.
type Envelope struct {
	sampleRate float64
	curve      Curve
	sustain    float64

	attack  stage
	decay   stage
	release stage

	releaseFrom float64 // level captured by Release, linear curve
	level       float64
	state       State
}

func NewEnvelope(sampleRate float64) *Envelope {
	e := &Envelope{}
	e.init(sampleRate, DefaultEnvelopeParams())
	return e
}

func (e *Envelope) init(sampleRate float64, p EnvelopeParams) {
	e.sampleRate = sampleRate
	e.state = StateIdle
	e.level = 0
	e.SetParams(p)
}

// SetParams updates all envelope settings at once.
func (e *Envelope) SetParams(p EnvelopeParams) {
	e.curve = p.Curve
	e.sustain = clamp(p.Sustain, 0, 1)
	e.attack.seconds = p.Attack
	e.decay.seconds = p.Decay
	e.release.seconds = p.Release
	e.updateStages()
}

func (e *Envelope) Params() EnvelopeParams {
	return EnvelopeParams{
		Attack:  e.attack.seconds,
		Decay:   e.decay.seconds,
		Sustain: e.sustain,
		Release: e.release.seconds,
		Curve:   e.curve,
	}
}

func (e *Envelope) SetAttackTime(seconds float64) {
	e.attack.seconds = seconds
	e.attack.update(e.sampleRate)
}

func (e *Envelope) SetDecayTime(seconds float64) {
	e.decay.seconds = seconds
	e.decay.update(e.sampleRate)
}

func (e *Envelope) SetReleaseTime(seconds float64) {
	e.release.seconds = seconds
	e.release.update(e.sampleRate)
}

func (e *Envelope) SetSustainLevel(level float64) {
	e.sustain = clamp(level, 0, 1)
}

func (e *Envelope) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.updateStages()
}

func (e *Envelope) SetCurve(c Curve) {
	e.curve = c
}

func (e *Envelope) updateStages() {
	e.attack.update(e.sampleRate)
	e.decay.update(e.sampleRate)
	e.release.update(e.sampleRate)
}

// Trigger starts the attack stage from the current level.
func (e *Envelope) Trigger() {
	e.attack.elapsed = 0
	e.decay.elapsed = 0
	e.release.elapsed = 0
	e.state = StateAttack
}

// Release moves a sounding envelope to the release stage. It does nothing
// when the envelope is idle.
func (e *Envelope) Release() {
	if e.state == StateIdle {
		return
	}
	e.releaseFrom = e.level
	e.release.elapsed = 0
	e.state = StateRelease
}

// Reset silences the envelope immediately.
func (e *Envelope) Reset() {
	e.state = StateIdle
	e.level = 0
	e.releaseFrom = 0
	e.attack.elapsed = 0
	e.decay.elapsed = 0
	e.release.elapsed = 0
}

// Step advances the envelope by one sample and returns the new level.
func (e *Envelope) Step() float64 {
	switch e.state {
	case StateIdle:
		e.level = 0
	case StateAttack:
		if e.curve == CurveLinear {
			e.level = math.Min(e.level+1/float64(e.attack.samples), 1)
		} else {
			e.level += e.attack.alpha * (1 - e.level)
		}
		e.attack.elapsed++
		if e.attack.elapsed >= e.attack.samples {
			e.level = 1
			e.decay.elapsed = 0
			e.state = StateDecay
		}
	case StateDecay:
		if e.curve == CurveLinear {
			e.level = math.Max(e.level-(1-e.sustain)/float64(e.decay.samples), e.sustain)
		} else {
			e.level += e.decay.alpha * (e.sustain - e.level)
		}
		e.decay.elapsed++
		if e.decay.elapsed >= e.decay.samples {
			e.level = e.sustain
			e.state = StateSustain
		}
	case StateSustain:
		e.level = e.sustain
	case StateRelease:
		if e.curve == CurveLinear {
			e.level = math.Max(e.level-e.releaseFrom/float64(e.release.samples), 0)
		} else {
			e.level -= e.release.alpha * e.level
		}
		e.release.elapsed++
		if e.release.elapsed >= e.release.samples || e.level < finishedLevel {
			e.level = 0
			e.state = StateIdle
		}
	}
	return e.level
}

func (e *Envelope) Level() float64 { return e.level }
func (e *Envelope) State() State   { return e.state }
func (e *Envelope) IsIdle() bool   { return e.state == StateIdle }

// IsFinished reports whether the envelope is idle and silent.
func (e *Envelope) IsFinished() bool {
	return e.state == StateIdle && e.level < finishedLevel
}

// onePoleCoefficient returns the smoothing coefficient that settles in about
// seconds, treating five time constants as a full transition. Non-positive
// times give a coefficient of 1, an immediate jump.
func onePoleCoefficient(seconds, sampleRate float64) float64 {
	tau := seconds / 5
	if tau <= 0 {
		tau = math.SmallestNonzeroFloat64
	}
	return 1 - math.Exp(-1/(tau*sampleRate))
}

// stageSamples returns the length of a stage in samples. A stage always lasts
// at least one sample.
func stageSamples(seconds, sampleRate float64) int {
	n := math.Ceil(seconds * sampleRate)
	if n < 1 || math.IsNaN(n) {
		return 1
	}
	return int(n)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
