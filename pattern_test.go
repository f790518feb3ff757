package main

import (
	"reflect"
	"testing"

	"github.com/mrdg/nxo/dub"
)

func TestEvalPattern(t *testing.T) {
	tests := []struct {
		input  string
		length float64
		want   []patternNote
	}{
		{
			input:  "loop a synth 4 [60 62 64 65]",
			length: 4,
			want: []patternNote{
				{0, 60, 1},
				{1, 62, 1},
				{2, 64, 1},
				{3, 65, 1},
			},
		},
		{
			input:  "loop a synth 3 [60 (64 67) [72 74]]",
			length: 3,
			want: []patternNote{
				{0, 60, 1},
				{1, 64, 1},
				{1, 67, 1},
				{2, 72, 0.5},
				{2.5, 74, 0.5},
			},
		},
		{
			input:  "loop a synth 2 [[60 [62 64]]]",
			length: 2,
			want: []patternNote{
				{0, 60, 1},
				{1, 62, 0.5},
				{1.5, 64, 0.5},
			},
		},
	}
	for _, test := range tests {
		cmd, err := dub.Parse(test.input)
		if err != nil {
			t.Fatal(err)
		}
		got, err := evalPattern(cmd.Args[3].(dub.Array), test.length, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("%s: want %v, got %v", test.input, test.want, got)
		}
	}
}

func TestEvalPatternErrors(t *testing.T) {
	for _, pattern := range [][]dub.Node{
		{dub.Int(60), dub.Identifier("x")},
		{dub.Tuple{dub.Int(60), dub.Float(0.5)}},
		{dub.Array{dub.String("c")}},
	} {
		if _, err := evalPattern(pattern, 4, 0); err == nil {
			t.Errorf("%v: want error", pattern)
		}
	}
}

func TestStepNotes(t *testing.T) {
	cmd, err := dub.Parse("loop a synth 2 [60 (62 64)] '*/*")
	if err != nil {
		t.Fatal(err)
	}
	got, err := stepNotes(cmd.Args[3].(dub.Array), cmd.Args[4].(dub.MatchExpr), 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []patternNote{
		{0, 60, 0.25},
		{0.5, 62, 0.25},
		{0.5, 64, 0.25},
		{1, 60, 0.25},
		{1.5, 62, 0.25},
		{1.5, 64, 0.25},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("want %v, got %v", want, got)
	}

	if _, err := stepNotes(cmd.Args[3].(dub.Array), cmd.Args[4].(dub.MatchExpr), 1.5); err == nil {
		t.Fatal("want error for fractional length")
	}
	if _, err := stepNotes(nil, cmd.Args[4].(dub.MatchExpr), 2); err == nil {
		t.Fatal("want error for empty pattern")
	}
}
