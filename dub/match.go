package dub

import "fmt"

type matchItem struct {
	level   int
	matcher matcher
}

type matcher interface {
	match(i int) bool
}

// rangeMatch matches start through end inclusive. A negative bound is open.
type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(i int) bool {
	if r.start >= 0 && i < r.start {
		return false
	}
	return r.end < 0 || i <= r.end
}

var matchAll = rangeMatch{-1, -1}

type listMatch []int

func (l listMatch) match(i int) bool {
	for _, n := range l {
		if n == i {
			return true
		}
	}
	return false
}

// Beats are quarter notes regardless of the time signature.
const quarter = 4

const maxLevel = 8

// EvalMatchExpr returns a step sequence for a bar of numerator/denominator
// divided into steps of 1/stepSize notes. Matched steps are 1. The first
// level of the expression selects beats, every following level halves the
// division: '2,4/* plays every eighth note of the second and fourth beat.
func EvalMatchExpr(expr MatchExpr, numerator, denominator, stepSize int) ([]int, error) {
	if numerator <= 0 || denominator <= 0 || stepSize < denominator {
		return nil, fmt.Errorf("invalid bar %d/%d with step size %d", numerator, denominator, stepSize)
	}
	seq := make([]int, (stepSize/denominator)*numerator)
	if len(expr.matchers) == 0 {
		return seq, nil
	}

	// steps per note on each level
	grid := make([]int, len(expr.matchers))
	for i, item := range expr.matchers {
		if item.level < 0 || item.level > maxLevel || quarter<<item.level > stepSize {
			return nil, fmt.Errorf("can't match on level %d with step size %d", item.level, stepSize)
		}
		grid[i] = stepSize / (quarter << item.level)
	}

	finest := grid[len(grid)-1]
	for step := 0; step < len(seq); step += finest {
		if expr.selects(step, grid) {
			seq[step] = 1
		}
	}
	return seq, nil
}

// selects reports whether every level matches the note that step falls on.
// Notes are numbered from 1: beats count through the bar, subdivisions
// restart on every beat.
func (m MatchExpr) selects(step int, grid []int) bool {
	for i, item := range m.matchers {
		note := step / grid[i]
		if item.level > 0 {
			note %= 1 << item.level
		}
		if !item.matcher.match(note + 1) {
			return false
		}
	}
	return true
}
