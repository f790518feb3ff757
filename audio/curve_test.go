package audio

import (
	"math"
	"testing"
)

func TestEnvelopeAt(t *testing.T) {
	lin := EnvelopeParams{Attack: 1, Decay: 1, Sustain: 0.5, Release: 2, Curve: CurveLinear}
	tests := []struct {
		sinceOn, sinceOff float64
		want              float64
	}{
		{-1, -1, 0},
		{0.5, -1, 0.5},
		{1.5, -1, 0.75},
		{10, -1, 0.5},
		{11, 1, 0.25},
		{12, 2, 0},
		{1.5, 1, 0.25}, // released during the attack at level 0.5
	}
	for _, test := range tests {
		if got := EnvelopeAt(lin, test.sinceOn, test.sinceOff); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("EnvelopeAt(%v, %v): want %v, got %v", test.sinceOn, test.sinceOff, test.want, got)
		}
	}

	exp := lin
	exp.Curve = CurveExponential
	// one time constant into the attack
	if want, got := 1-math.Exp(-1), EnvelopeAt(exp, 0.2, -1); math.Abs(got-want) > 1e-12 {
		t.Errorf("exp attack: want %v, got %v", want, got)
	}
}

// The closed form agrees with the sample by sample envelope at stage
// boundaries, where the latter snaps to its target.
func TestEnvelopeAtMatchesEnvelope(t *testing.T) {
	p := EnvelopeParams{Attack: 0.01, Decay: 0.02, Sustain: 0.5, Release: 0.05, Curve: CurveLinear}
	e := NewEnvelope(1000)
	e.SetParams(p)
	e.Trigger()
	for n := 1; n <= 200; n++ {
		got := e.Step()
		want := EnvelopeAt(p, float64(n)/1000, -1)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("sample %d: envelope %v, closed form %v", n, got, want)
		}
	}
}

func TestPreviewCurve(t *testing.T) {
	p := EnvelopeParams{Attack: 1, Decay: 1, Sustain: 0.5, Release: 1, Curve: CurveLinear}
	got := PreviewCurve(p, 3, make([]float64, 5))
	want := []float64{0, 1, 0.5, 0.5, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
	if got := PreviewCurve(p, 1, nil); len(got) != 0 {
		t.Fatalf("want empty curve, got %v", got)
	}
}
