package audio

// Render runs s for the given number of frames and returns the interleaved
// output. Event offsets are frame numbers counted from the start of the
// render; events past the end are applied on the last frame.
func Render(s *Synth, events []Event, frames, channels int, gain Gain) []float32 {
	if frames <= 0 || channels <= 0 {
		return nil
	}
	out := make([]float32, frames*channels)
	sorted := append([]Event(nil), events...)
	sortEvents(sorted, frames)

	block := make([]Event, 0, len(sorted))
	next := 0
	for start := 0; start < frames; start += bufferSize {
		n := frames - start
		if n > bufferSize {
			n = bufferSize
		}
		block = block[:0]
		for ; next < len(sorted) && sorted[next].Offset < start+n; next++ {
			ev := sorted[next]
			ev.Offset -= start
			block = append(block, ev)
		}
		s.ProcessInterleaved(out[start*channels:(start+n)*channels], channels, block, gain)
	}
	return out
}

// Sequence returns events that play notes one after another, each held for
// hold frames and started every step frames.
func Sequence(notes []int, velocity float64, step, hold int) []Event {
	events := make([]Event, 0, 2*len(notes))
	for n, note := range notes {
		start := n * step
		events = append(events, NoteOnAt(start, note, velocity), NoteOffAt(start+hold, note))
	}
	return events
}
