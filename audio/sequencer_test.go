package audio

import (
	"reflect"
	"testing"
)

type playedNote struct {
	offset   int
	pitch    int
	velocity float64
	duration int
}

type testInstrument struct {
	notes []playedNote
}

func (i *testInstrument) PlayNote(offset, pitch int, velocity float64, duration int) {
	i.notes = append(i.notes, playedNote{
		offset:   offset,
		pitch:    pitch,
		velocity: velocity,
		duration: duration,
	})
}

func (i *testInstrument) flush() {
	i.notes = nil
}

func TestSequencer(t *testing.T) {
	const sampleRate = 44100
	const bpm = 120.0
	const bufferSize = sampleRate // use a large buffer size to make testing easier
	instrument := &testInstrument{}

	seq := NewSequencer(NewProps(), sampleRate)
	if err := seq.Set(PropBPM, bpm); err != nil {
		t.Fatal(err)
	}

	clip := NewClip(4, instrument)
	clip.AddNote(0, 69, 1)                 // first beat
	clip.AddNoteVelocity(1.25, 73, 1, 0.5) // 2nd 16th note on second beat
	clip.AddNote(2, 200, 1)                // out of range, ignored

	if err := seq.Set(PropClips, map[string]*Clip{
		"beat": clip,
	}); err != nil {
		t.Fatal(err)
	}

	seq.Tick(bufferSize)

	want := []playedNote{
		{offset: 0, pitch: 69, velocity: 1, duration: 22050},
		{offset: 27563, pitch: 73, velocity: 0.5, duration: 22050},
	}
	if got := instrument.notes; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong notes:\nwant: %+v\ngot:  %+v", want, got)
	}

	instrument.flush()
	seq.Tick(bufferSize)

	if want, got := 0, len(instrument.notes); want != got {
		t.Errorf("wanted zero notes, got: %v", instrument.notes)
	}

	instrument.flush()
	seq.Tick(bufferSize)

	if got := instrument.notes; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong notes:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestSequencerWrapAround(t *testing.T) {
	const sampleRate = 48000
	const bufferSize = 6400 // 256 pulses per buffer at 120 bpm
	instrument := &testInstrument{}
	seq := NewSequencer(NewProps(), sampleRate)

	clip := NewClip(1, instrument) // 960 pulses
	clip.AddNote(0, 60, 0.5)
	clip.AddNote(0.9375, 62, 0.0625)
	if err := seq.Set(PropClips, map[string]*Clip{"wrap": clip}); err != nil {
		t.Fatal(err)
	}

	for n := 0; n < 3; n++ {
		seq.Tick(bufferSize)
	}
	instrument.flush()

	// pulses 768-1024 cross the end of the clip
	seq.Tick(bufferSize)
	want := []playedNote{
		{offset: 4800, pitch: 60, velocity: 1, duration: 12000},
		{offset: 3300, pitch: 62, velocity: 1, duration: 1500},
	}
	if got := instrument.notes; !reflect.DeepEqual(want, got) {
		t.Fatalf("wrong notes around the loop point:\nwant: %+v\ngot:  %+v", want, got)
	}

	instrument.flush()
	seq.Tick(bufferSize)
	if len(instrument.notes) != 0 {
		t.Errorf("note scheduled twice after wrapping: %+v", instrument.notes)
	}
}
