package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrdg/nxo/audio"
)

const levelWidth = 20

// renderVoices writes a table with one row per allocated voice.
func renderVoices(w io.Writer, stats audio.Stats, voices []audio.VoiceInfo) {
	header := fmt.Sprintf("voices %d/%d  active %d  frames %d", stats.Voices, stats.Capacity, stats.Active, stats.Frames)
	fmt.Fprintln(w, colorize(header, colorMagenta))

	for i, v := range voices {
		id := colorize(fmt.Sprintf("%2d", i), colorGreen)
		note := colorize(fmt.Sprintf("%-4s", noteName(v.Note)), colorBlue)
		state := colorize(fmt.Sprintf("%-7s", v.State), stateColor(v.State))
		fmt.Fprintf(w, "%s %s %s %s %.3f\n", id, note, state, levelBar(v.Level), v.Level)
	}
}

func levelBar(level float64) string {
	n := int(level*levelWidth + 0.5)
	if n < 0 {
		n = 0
	}
	if n > levelWidth {
		n = levelWidth
	}
	return strings.Repeat("█", n) + strings.Repeat("·", levelWidth-n)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func noteName(note int) string {
	if note < 0 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

func stateColor(s audio.State) int {
	switch s {
	case audio.StateAttack:
		return colorYellow
	case audio.StateDecay, audio.StateSustain:
		return colorGreen
	case audio.StateRelease:
		return colorRed
	default:
		return colorBlack
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
