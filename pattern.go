package main

import (
	"fmt"

	"github.com/mrdg/nxo/dub"
)

type patternNote struct {
	pos    float64
	pitch  int
	length float64
}

// evalPattern divides length evenly between the items of pattern, starting
// at start. Numbers are notes, arrays subdivide their share and tuples play
// their notes together.
func evalPattern(pattern []dub.Node, length, start float64) ([]patternNote, error) {
	if len(pattern) == 0 {
		return nil, nil
	}
	var notes []patternNote
	noteLength := length / float64(len(pattern))
	pos := start
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Int:
			notes = append(notes, patternNote{pos: pos, pitch: int(v), length: noteLength})
		case dub.Tuple:
			for _, item := range v {
				pitch, ok := item.(dub.Int)
				if !ok {
					return nil, fmt.Errorf("invalid %v in chord %v", item, v)
				}
				notes = append(notes, patternNote{pos: pos, pitch: int(pitch), length: noteLength})
			}
		case dub.Array:
			sub, err := evalPattern(v, noteLength, pos)
			if err != nil {
				return nil, err
			}
			notes = append(notes, sub...)
		default:
			return nil, fmt.Errorf("invalid %v in pattern %v", v, pattern)
		}
		pos += noteLength
	}
	return notes, nil
}

// stepNotes plays the items of pattern in turn on the sixteenth note steps
// selected by expr. beats has to be a whole number.
func stepNotes(pattern []dub.Node, expr dub.MatchExpr, beats float64) ([]patternNote, error) {
	bar := int(beats)
	if float64(bar) != beats || bar <= 0 {
		return nil, fmt.Errorf("length must be a whole number of beats: %v", beats)
	}
	if len(pattern) == 0 {
		return nil, fmt.Errorf("no notes to play")
	}
	seq, err := dub.EvalMatchExpr(expr, bar, 4, stepSize)
	if err != nil {
		return nil, err
	}
	const stepLength = 4.0 / stepSize // in beats
	var notes []patternNote
	k := 0
	for step, on := range seq {
		if on == 0 {
			continue
		}
		item := pattern[k%len(pattern)]
		k++
		sub, err := evalPattern([]dub.Node{item}, stepLength, float64(step)*stepLength)
		if err != nil {
			return nil, err
		}
		notes = append(notes, sub...)
	}
	return notes, nil
}
