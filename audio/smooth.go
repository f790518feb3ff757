package audio

import "math"

// Gain supplies the linear output gain, one value per frame.
type Gain interface {
	Next() float64
}

// ConstantGain is a Gain that never changes.
type ConstantGain float64

func (g ConstantGain) Next() float64 { return float64(g) }

// defaultSmoothing is how long a Smoother takes to reach a new target.
const defaultSmoothing = 0.003

// Smoother ramps linearly towards its target over a fixed time.
type Smoother struct {
	current float64
	target  float64
	step    float64
	steps   int // remaining steps of the current ramp
	length  int // steps per ramp
}

func NewSmoother(sampleRate float64, initial float64) *Smoother {
	return &Smoother{
		current: initial,
		target:  initial,
		length:  stageSamples(defaultSmoothing, sampleRate),
	}
}

// SetTarget starts a ramp from the current value to target. Setting the
// value that is already the target does not restart the ramp.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	s.target = target
	s.steps = s.length
	s.step = (target - s.current) / float64(s.length)
}

// Next advances the ramp by one frame and returns the new value.
func (s *Smoother) Next() float64 {
	if s.steps > 0 {
		s.current += s.step
		s.steps--
		if s.steps == 0 {
			s.current = s.target
		}
	}
	return s.current
}

func (s *Smoother) Target() float64 { return s.target }

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20.0)
}
