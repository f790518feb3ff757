package main

import (
	"strings"
	"testing"

	"github.com/mrdg/nxo/audio"
)

func TestNoteName(t *testing.T) {
	tests := map[int]string{
		-1:  "-",
		0:   "C-1",
		60:  "C4",
		61:  "C#4",
		69:  "A4",
		127: "G9",
	}
	for note, want := range tests {
		if got := noteName(note); got != want {
			t.Errorf("%d: want %s, got %s", note, want, got)
		}
	}
}

func TestLevelBar(t *testing.T) {
	tests := []struct {
		level float64
		full  int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{2, 20},
		{-1, 0},
	}
	for _, test := range tests {
		bar := levelBar(test.level)
		if got := strings.Count(bar, "█"); got != test.full {
			t.Errorf("%v: want %d full cells, got %d", test.level, test.full, got)
		}
		if got := len([]rune(bar)); got != levelWidth {
			t.Errorf("%v: want width %d, got %d", test.level, levelWidth, got)
		}
	}
}

func TestRenderVoices(t *testing.T) {
	var b strings.Builder
	stats := audio.Stats{Capacity: 8, Voices: 2, Active: 1, Frames: 512}
	voices := []audio.VoiceInfo{
		{Note: 60, State: audio.StateSustain, Level: 0.7},
		{Note: 64, State: audio.StateIdle},
	}
	renderVoices(&b, stats, voices)

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "voices 2/8") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "C4") || !strings.Contains(lines[1], "0.700") {
		t.Errorf("unexpected row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "E4") {
		t.Errorf("unexpected row: %q", lines[2])
	}
}
