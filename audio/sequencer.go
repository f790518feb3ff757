package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

const (
	PropBPM   = "bpm"
	PropClips = "clips"
)

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// Playable receives the notes of a clip. Offset and duration are in samples.
type Playable interface {
	PlayNote(offset, pitch int, velocity float64, duration int)
}

// AddNote adds a note at position beats from the start of the clip.
func (c *Clip) AddNote(position float64, pitch int, length float64) {
	c.AddNoteVelocity(position, pitch, length, 1)
}

func (c *Clip) AddNoteVelocity(position float64, pitch int, length, velocity float64) {
	if pitch < 0 || pitch >= numNotes {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: clamp(velocity, 0, 1),
		length:   length,
	})
}

// Len returns the number of notes in the clip.
func (c *Clip) Len() int { return len(c.notes) }

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity float64
	length   float64 // note length in beats
}

type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	sampleRate  float64
	totalPulses uint64
}

func NewSequencer(props *Props, sampleRate float64) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		sampleRate: sampleRate,
		clips:      props.MustRegister(PropClips, setClips, clips),
		bpm:        props.MustRegister(PropBPM, setFloat64(1, 500), 120.0),
	}
	return seq
}

func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			var delta int // pulses from the current position to the note
			switch {
			case note.pos >= pos && note.pos < nextPos:
				delta = note.pos - pos
			case nextPos > clip.Length && note.pos < nextPos-clip.Length:
				// We've reached the end of the clip so also check start of clip for notes to schedule.
				delta = clip.Length - pos + note.pos
			default:
				continue
			}
			offset := int(math.Round(float64(delta) * samplesPerPulse))
			duration := int(note.length * s.sampleRate / (bpm / 60.))
			clip.instrument.PlayNote(offset, note.pitch, note.velocity, duration)
		}
	}
	s.totalPulses += uint64(numPulses)
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
