package audio

// EventKind tells note-on and note-off events apart.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
)

func (k EventKind) String() string {
	if k == NoteOff {
		return "off"
	}
	return "on"
}

// Event is a note event that takes effect at frame Offset of a block.
// Velocity is only meaningful for NoteOn.
type Event struct {
	Kind     EventKind
	Note     int
	Velocity float64
	Offset   int
}

func NoteOnAt(offset, note int, velocity float64) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: velocity, Offset: offset}
}

func NoteOffAt(offset, note int) Event {
	return Event{Kind: NoteOff, Note: note, Offset: offset}
}

const (
	DefaultSampleRate = 44100
	DefaultMaxVoices  = 16
	maxBlockEvents    = 256
)

// Config holds the settings fixed at construction of a Synth.
type Config struct {
	SampleRate float64
	MaxVoices  int
	Envelope   EnvelopeParams
	Policy     StealPolicy
}

func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		MaxVoices:  DefaultMaxVoices,
		Envelope:   DefaultEnvelopeParams(),
		Policy:     StealQuietest,
	}
}

// Synth renders blocks of audio from a voice pool and sample accurate note
// events. It must only be used from one goroutine.
type Synth struct {
	pool   *Pool
	clock  uint64 // frames rendered, wraps around
	events []Event
	cursor int
}

// WithDefaults returns cfg with zero values replaced by the defaults.
func (cfg Config) WithDefaults() Config {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = DefaultMaxVoices
	}
	if cfg.Envelope == (EnvelopeParams{}) {
		cfg.Envelope = DefaultEnvelopeParams()
	}
	return cfg
}

func NewSynth(cfg Config) *Synth {
	cfg = cfg.WithDefaults()
	pool := NewPool(cfg.MaxVoices, cfg.SampleRate)
	pool.SetEnvelope(cfg.Envelope)
	pool.SetPolicy(cfg.Policy)
	return &Synth{
		pool:   pool,
		events: make([]Event, 0, maxBlockEvents),
	}
}

func (s *Synth) Pool() *Pool { return s.pool }

// Clock returns the number of frames rendered so far.
func (s *Synth) Clock() uint64 { return s.clock }

// Process renders len(out[0]) frames into every channel of out, applying
// events at their offsets. Events at equal offsets are applied in the order
// given. gain is read once per frame.
func (s *Synth) Process(out [][]float32, events []Event, gain Gain) {
	if len(out) == 0 {
		return
	}
	frames := len(out[0])
	s.load(events, frames)
	for f := 0; f < frames; f++ {
		sample := float32(s.frame(f, gain))
		for c := range out {
			out[c][f] = sample
		}
	}
}

// ProcessInterleaved is Process for frame interleaved output with the given
// channel count.
func (s *Synth) ProcessInterleaved(dst []float32, channels int, events []Event, gain Gain) {
	if channels <= 0 {
		return
	}
	frames := len(dst) / channels
	s.load(events, frames)
	for f := 0; f < frames; f++ {
		sample := float32(s.frame(f, gain))
		for c := 0; c < channels; c++ {
			dst[f*channels+c] = sample
		}
	}
}

func (s *Synth) frame(f int, gain Gain) float64 {
	s.clock++
	for s.cursor < len(s.events) && s.events[s.cursor].Offset == f {
		s.dispatch(s.events[s.cursor])
		s.cursor++
	}
	return s.pool.NextSample() * gain.Next()
}

func (s *Synth) dispatch(ev Event) {
	switch ev.Kind {
	case NoteOn:
		s.pool.NoteOn(ev.Note, ev.Velocity, s.clock)
	case NoteOff:
		s.pool.NoteOff(ev.Note)
	}
}

// load copies events into the scratch buffer and orders them for dispatch.
func (s *Synth) load(events []Event, frames int) {
	s.events = append(s.events[:0], events...)
	s.cursor = 0
	sortEvents(s.events, frames)
}

// sortEvents clamps event offsets into a block of the given length and sorts
// the events by offset, keeping arrival order for equal offsets.
func sortEvents(events []Event, frames int) {
	for i := range events {
		switch off := events[i].Offset; {
		case off < 0:
			events[i].Offset = 0
		case off >= frames && frames > 0:
			events[i].Offset = frames - 1
		}
	}
	for i := 1; i < len(events); i++ {
		ev := events[i]
		j := i
		for j > 0 && events[j-1].Offset > ev.Offset {
			events[j] = events[j-1]
			j--
		}
		events[j] = ev
	}
}
