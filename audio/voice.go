package audio

import "math"

const twoPi = 2 * math.Pi

// Voice is a sine oscillator shaped by its own envelope.
type Voice struct {
	env        Envelope
	sampleRate float64
	note       int
	freq       float64
	phase      float64 // in cycles, [0, 1)
	startTime  uint64
}

func NewVoice(sampleRate float64) *Voice {
	v := &Voice{}
	v.init(sampleRate, DefaultEnvelopeParams())
	return v
}

func (v *Voice) init(sampleRate float64, p EnvelopeParams) {
	v.sampleRate = sampleRate
	v.env.init(sampleRate, p)
}

// Trigger starts note at the given timestamp. Velocity is accepted for
// compatibility with note events but does not scale the output.
func (v *Voice) Trigger(note int, velocity float64, timestamp uint64) {
	v.note = note
	v.freq = midiToFreq(note)
	v.startTime = timestamp
	v.env.Trigger()
}

func (v *Voice) Release() {
	v.env.Release()
}

// NextSample advances the oscillator and envelope by one sample.
func (v *Voice) NextSample() float64 {
	v.phase += v.freq / v.sampleRate
	v.phase -= math.Floor(v.phase)
	return math.Sin(twoPi*v.phase) * v.env.Step()
}

func (v *Voice) IsFinished() bool { return v.env.IsFinished() }

// Amplitude returns the current envelope level without advancing it.
func (v *Voice) Amplitude() float64 { return v.env.Level() }

func (v *Voice) Note() int { return v.note }

func (v *Voice) Frequency() float64 { return v.freq }

// StartTime is the timestamp passed to the last Trigger.
func (v *Voice) StartTime() uint64 { return v.startTime }

func (v *Voice) Envelope() *Envelope { return &v.env }

func (v *Voice) setSampleRate(sampleRate float64) {
	v.sampleRate = sampleRate
	v.env.SetSampleRate(sampleRate)
}

func midiToFreq(note int) float64 {
	f := math.Pow(2, float64((note-69))/12.0) * 440
	return f
}
