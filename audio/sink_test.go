package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type rampSource struct{}

func (rampSource) Process(samples [][]float32) {
	for c := range samples {
		for f := range samples[c] {
			samples[c][f] += float32(c+1) * float32(f)
		}
	}
}

type countTicker struct{ frames int }

func (c *countTicker) Tick(n int) { c.frames += n }

func TestSinkRead(t *testing.T) {
	s := &Sink{channels: 2}
	ticker := &countTicker{}
	s.AddTicker(ticker)
	s.AddSources(rampSource{}, rampSource{})

	p := make([]byte, 3*2*4)
	n, err := s.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(p) {
		t.Fatalf("want %d bytes, got %d", len(p), n)
	}
	want := []float32{0, 0, 2, 4, 4, 8}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		if got != w {
			t.Fatalf("sample %d: want %v, got %v", i, w, got)
		}
	}
	if ticker.frames != 3 {
		t.Fatalf("want 3 ticked frames, got %d", ticker.frames)
	}

	// buffers are cleared between calls
	s.Read(p)
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*2:])); got != 2 {
		t.Fatalf("want 2, got %v", got)
	}
}

func TestHeadlessSink(t *testing.T) {
	s := NewHeadlessSink(44100, 64)
	ticker := &countTicker{}
	s.AddTicker(ticker)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	frames := ticker.frames
	if frames == 0 || frames%64 != 0 {
		t.Fatalf("want whole buffers of 64 frames, got %d frames", frames)
	}
	time.Sleep(10 * time.Millisecond)
	if ticker.frames != frames {
		t.Fatal("sink kept running after Stop")
	}
}
