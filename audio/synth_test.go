package audio

import (
	"reflect"
	"testing"
)

func newTestBuffers(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	return out
}

func TestSynthProcess(t *testing.T) {
	s := NewSynth(Config{SampleRate: 44100, MaxVoices: 4})
	out := newTestBuffers(2, 64)
	events := []Event{
		NoteOnAt(0, 60, 1),
		NoteOnAt(10, 64, 1),
		NoteOffAt(20, 60),
		NoteOffAt(30, 64),
	}
	s.Process(out, events, ConstantGain(1))

	if want, got := uint64(64), s.Clock(); want != got {
		t.Fatalf("want clock %d, got %d", want, got)
	}
	if !reflect.DeepEqual(out[0], out[1]) {
		t.Fatal("channels differ")
	}
	if out[0][0] == 0 {
		t.Fatal("want sound on the first frame")
	}
	if want, got := 2, s.Pool().Len(); want != got {
		t.Fatalf("want %d voices, got %d", want, got)
	}
	for _, note := range []int{60, 64} {
		i, _ := s.Pool().Lookup(note)
		if got := s.Pool().Voice(i).Envelope().State(); got != StateRelease {
			t.Fatalf("note %d: want release, got %v", note, got)
		}
	}

	// default release is 0.1 seconds
	for i := 0; i < 100; i++ {
		s.Process(out, nil, ConstantGain(1))
	}
	for f, v := range out[0] {
		if v != 0 {
			t.Fatalf("frame %d: want silence after release, got %v", f, v)
		}
	}
	if got := s.Pool().ActiveVoices(); got != 0 {
		t.Fatalf("want no active voices, got %d", got)
	}
}

func TestSynthEventOrder(t *testing.T) {
	sorted := []Event{
		NoteOnAt(0, 60, 1),
		NoteOnAt(5, 67, 1),
		NoteOffAt(20, 60),
		NoteOffAt(40, 67),
	}
	shuffled := []Event{sorted[3], sorted[1], sorted[2], sorted[0]}

	a, b := NewSynth(DefaultConfig()), NewSynth(DefaultConfig())
	outA, outB := newTestBuffers(1, 128), newTestBuffers(1, 128)
	a.Process(outA, sorted, ConstantGain(1))
	b.Process(outB, shuffled, ConstantGain(1))
	if !reflect.DeepEqual(outA, outB) {
		t.Fatal("output depends on event order")
	}
	if shuffled[0].Offset != 40 {
		t.Fatal("caller's events were modified")
	}
}

func TestSynthEventOffsetClamped(t *testing.T) {
	s := NewSynth(DefaultConfig())
	out := newTestBuffers(1, 32)
	s.Process(out, []Event{NoteOnAt(-5, 60, 1), NoteOnAt(100, 62, 1)}, ConstantGain(1))
	if out[0][0] == 0 {
		t.Fatal("negative offset should play on the first frame")
	}
	i, ok := s.Pool().Lookup(62)
	if !ok {
		t.Fatal("late event should play on the last frame")
	}
	if got := s.Pool().Voice(i).StartTime(); got != 32 {
		t.Fatalf("want start at frame 32, got %d", got)
	}
}

func TestSortEvents(t *testing.T) {
	events := []Event{
		NoteOffAt(3, 1),
		NoteOnAt(1, 2, 1),
		NoteOnAt(3, 3, 1),
		NoteOffAt(1, 4),
		NoteOnAt(9, 5, 1),
	}
	sortEvents(events, 8)
	want := []Event{
		NoteOnAt(1, 2, 1),
		NoteOffAt(1, 4),
		NoteOffAt(3, 1),
		NoteOnAt(3, 3, 1),
		NoteOnAt(7, 5, 1),
	}
	if !reflect.DeepEqual(want, events) {
		t.Fatalf("want %v, got %v", want, events)
	}
}

func TestSynthProcessInterleaved(t *testing.T) {
	events := []Event{NoteOnAt(0, 60, 1), NoteOnAt(3, 72, 1), NoteOffAt(50, 60)}
	a, b := NewSynth(DefaultConfig()), NewSynth(DefaultConfig())

	planar := newTestBuffers(2, 100)
	a.Process(planar, events, ConstantGain(0.5))
	interleaved := make([]float32, 200)
	b.ProcessInterleaved(interleaved, 2, events, ConstantGain(0.5))

	for f := 0; f < 100; f++ {
		for c := 0; c < 2; c++ {
			if want, got := planar[c][f], interleaved[2*f+c]; want != got {
				t.Fatalf("frame %d channel %d: want %v, got %v", f, c, want, got)
			}
		}
	}
}

func TestSynthGain(t *testing.T) {
	s := NewSynth(DefaultConfig())
	out := newTestBuffers(1, 64)
	s.Process(out, []Event{NoteOnAt(0, 60, 1)}, ConstantGain(0))
	for f, v := range out[0] {
		if v != 0 {
			t.Fatalf("frame %d: want silence at zero gain, got %v", f, v)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	s := NewSynth(Config{})
	if want, got := DefaultMaxVoices, s.Pool().Cap(); want != got {
		t.Fatalf("want %d voices, got %d", want, got)
	}
	if want, got := DefaultEnvelopeParams(), s.Pool().EnvelopeParams(); want != got {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}
