package audio

import "math"

// EnvelopeAt returns the envelope level sinceOn seconds after a note-on from
// silence. sinceOff is the time since the note-off, or negative while the note
// is held. It computes the same shapes as Envelope directly from elapsed time
// and is meant for drawing curves, not for rendering voices.
func EnvelopeAt(p EnvelopeParams, sinceOn, sinceOff float64) float64 {
	if sinceOn < 0 {
		return 0
	}
	if sinceOff < 0 {
		return heldLevel(p, sinceOn)
	}
	if sinceOff > sinceOn {
		sinceOff = sinceOn
	}
	from := heldLevel(p, sinceOn-sinceOff)
	release := math.Max(p.Release, 0)
	if sinceOff >= release {
		return 0
	}
	var level float64
	if p.Curve == CurveLinear {
		level = from * (1 - sinceOff/release)
	} else {
		level = from * math.Exp(-sinceOff/timeConstant(release))
	}
	if level < finishedLevel {
		return 0
	}
	return level
}

func heldLevel(p EnvelopeParams, t float64) float64 {
	attack := math.Max(p.Attack, 0)
	decay := math.Max(p.Decay, 0)
	sustain := clamp(p.Sustain, 0, 1)
	switch {
	case t < attack:
		if p.Curve == CurveLinear {
			return t / attack
		}
		return 1 - math.Exp(-t/timeConstant(attack))
	case t < attack+decay:
		u := t - attack
		if p.Curve == CurveLinear {
			return 1 - (1-sustain)*u/decay
		}
		return sustain + (1-sustain)*math.Exp(-u/timeConstant(decay))
	default:
		return sustain
	}
}

func timeConstant(seconds float64) float64 {
	tau := seconds / 5
	if tau <= 0 {
		return math.SmallestNonzeroFloat64
	}
	return tau
}

// PreviewCurve fills dst with the levels of a note held for hold seconds and
// then released, sampled evenly from the note-on to the end of the release.
func PreviewCurve(p EnvelopeParams, hold float64, dst []float64) []float64 {
	if len(dst) == 0 {
		return dst
	}
	hold = math.Max(hold, 0)
	total := hold + math.Max(p.Release, 0)
	step := 0.0
	if len(dst) > 1 {
		step = total / float64(len(dst)-1)
	}
	for i := range dst {
		t := float64(i) * step
		sinceOff := -1.0
		if t >= hold {
			sinceOff = t - hold
		}
		dst[i] = EnvelopeAt(p, t, sinceOff)
	}
	return dst
}
