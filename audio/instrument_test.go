package audio

import (
	"math"
	"reflect"
	"sync"
	"testing"
)

func newTestInstrument(t *testing.T) *Instrument {
	t.Helper()
	return NewInstrument(NewProps(), Config{SampleRate: 44100, MaxVoices: 4})
}

func TestInstrumentPlayNote(t *testing.T) {
	inst := newTestInstrument(t)
	out := newTestBuffers(2, 64)

	inst.PlayNote(0, 60, 1, 100)
	inst.Process(out)
	if want, got := []VoiceInfo{{Note: 60, State: StateAttack, Level: inst.synth.Pool().Voice(0).Amplitude()}}, inst.Voices(); !reflect.DeepEqual(want, got) {
		t.Fatalf("want %v, got %v", want, got)
	}

	inst.Process(out)
	if got := inst.Voices()[0].State; got != StateRelease {
		t.Fatalf("want note released after its duration, got %v", got)
	}
	want := Stats{Capacity: 4, Voices: 1, Active: 1, Frames: 128}
	if got := inst.Stats(); got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
}

func TestInstrumentNoteOnOff(t *testing.T) {
	inst := newTestInstrument(t)
	out := newTestBuffers(1, 32)
	inst.NoteOn(0, 64, 1)
	inst.NoteOn(3, 67, 1)
	inst.Process(out)
	if got := inst.Stats().Active; got != 2 {
		t.Fatalf("want 2 active voices, got %d", got)
	}
	inst.NoteOff(0, 64)
	inst.Process(out)
	for _, v := range inst.Voices() {
		want := StateAttack
		if v.Note == 64 {
			want = StateRelease
		}
		if v.State != want {
			t.Errorf("note %d: want %v, got %v", v.Note, want, v.State)
		}
	}
}

func TestInstrumentProps(t *testing.T) {
	inst := newTestInstrument(t)
	for key, val := range map[string]interface{}{
		PropEnvAttack:  0.5,
		PropEnvDecay:   1,
		PropEnvSustain: 0.25,
		PropEnvRelease: 2.,
		PropEnvCurve:   "linear",
		PropSteal:      "oldest",
	} {
		if err := inst.Set(key, val); err != nil {
			t.Fatal(err)
		}
	}
	inst.Process(newTestBuffers(1, 16))

	want := EnvelopeParams{Attack: 0.5, Decay: 1, Sustain: 0.25, Release: 2, Curve: CurveLinear}
	if got := inst.synth.Pool().EnvelopeParams(); got != want {
		t.Fatalf("want %+v, got %+v", want, got)
	}
	if got := inst.synth.Pool().Policy(); got != StealOldest {
		t.Fatalf("want oldest, got %v", got)
	}

	for key, val := range map[string]interface{}{
		PropLevel:      3.,
		PropEnvAttack:  20.,
		PropEnvSustain: "loud",
		PropEnvCurve:   "cubic",
		"cutoff":       100.,
	} {
		if err := inst.Set(key, val); err == nil {
			t.Errorf("set %s to %v: want error", key, val)
		}
	}
}

func TestInstrumentLevel(t *testing.T) {
	inst := newTestInstrument(t)
	if err := inst.Set(PropLevel, 0.); err != nil {
		t.Fatal(err)
	}
	synth := NewSynth(Config{SampleRate: 44100, MaxVoices: 4})

	got, want := newTestBuffers(1, 4096), newTestBuffers(1, 4096)
	inst.NoteOn(0, 69, 1)
	inst.Process(got)
	synth.Process(want, []Event{NoteOnAt(0, 69, 1)}, ConstantGain(1))

	// the gain ramps from -10 dB to 0 dB over the first frames
	tail := 1000
	for f := tail; f < len(got[0]); f++ {
		if math.Abs(float64(got[0][f]-want[0][f])) > 1e-6 {
			t.Fatalf("frame %d: want %v, got %v", f, want[0][f], got[0][f])
		}
	}
	if math.Abs(float64(got[0][0])-float64(want[0][0])*dbToGain(-10)) > 1e-3 {
		t.Fatalf("first frame should be close to -10 dB, got %v want about %v", got[0][0], want[0][0])
	}
}

func TestInstrumentConcurrentNotes(t *testing.T) {
	inst := newTestInstrument(t)
	out := newTestBuffers(2, 128)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(note int) {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				inst.PlayNote(k, note, 1, 10)
			}
		}(60 + p)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		inst.Process(out)
	}
	inst.Process(out)
	if got := inst.Stats().Voices; got > 4 {
		t.Fatalf("want at most 4 voices, got %d", got)
	}
}
