package audio

import (
	"fmt"
	"strings"
)

// numNotes is the size of the MIDI note range.
const numNotes = 128

// StealPolicy selects the voice to reuse when the pool is full.
type StealPolicy int

const (
	// StealQuietest reuses the voice with the lowest envelope level. Ties go
	// to the lowest index.
	StealQuietest StealPolicy = iota
	// StealOldest reuses the finished voice that was triggered first, or the
	// least recently triggered voice when none has finished.
	StealOldest
)

func (p StealPolicy) String() string {
	if p == StealOldest {
		return "oldest"
	}
	return "quietest"
}

func ParseStealPolicy(s string) (StealPolicy, error) {
	switch strings.ToLower(s) {
	case "quietest":
		return StealQuietest, nil
	case "oldest":
		return StealOldest, nil
	default:
		return StealQuietest, fmt.Errorf("not a valid steal policy: %v", s)
	}
}

// Pool maps notes onto a fixed number of voices. Voices are created on first
// use up to the capacity and are reused in place afterwards. Finished voices
// keep their slot and are only unmapped on the next NoteOn.
type Pool struct {
	voices      []Voice
	noteToIndex [numNotes]int // -1 when the note is not mapped
	order       []int         // voice indices, least recently triggered first
	policy      StealPolicy
	params      EnvelopeParams
	sampleRate  float64
}

func NewPool(capacity int, sampleRate float64) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool{
		voices:     make([]Voice, 0, capacity),
		order:      make([]int, 0, capacity),
		params:     DefaultEnvelopeParams(),
		sampleRate: sampleRate,
	}
	p.clearNotes()
	return p
}

func (p *Pool) clearNotes() {
	for n := range p.noteToIndex {
		p.noteToIndex[n] = -1
	}
}

// NoteOn assigns note to a voice and triggers it. It returns the index of
// the voice, or -1 when note is outside the MIDI range.
func (p *Pool) NoteOn(note int, velocity float64, timestamp uint64) int {
	if note < 0 || note >= numNotes {
		return -1
	}
	p.collect()

	// a note that is still held gets released so that its voice can ring
	// out instead of becoming unreachable
	if prev := p.noteToIndex[note]; prev >= 0 {
		p.voices[prev].Release()
		p.noteToIndex[note] = -1
	}

	var target int
	if len(p.voices) < cap(p.voices) {
		p.voices = p.voices[:len(p.voices)+1]
		target = len(p.voices) - 1
		p.voices[target].init(p.sampleRate, p.params)
	} else {
		target = p.steal()
		if owner := p.voices[target].Note(); p.noteToIndex[owner] == target {
			p.noteToIndex[owner] = -1
		}
	}

	p.touch(target)
	p.noteToIndex[note] = target
	p.voices[target].Trigger(note, velocity, timestamp)
	return target
}

// NoteOff releases the voice playing note. Unknown notes are ignored. The
// mapping stays in place until the voice has finished.
func (p *Pool) NoteOff(note int) {
	if note < 0 || note >= numNotes {
		return
	}
	if i := p.noteToIndex[note]; i >= 0 {
		p.voices[i].Release()
	}
}

// collect unmaps notes whose voices have finished.
func (p *Pool) collect() {
	for note, i := range p.noteToIndex {
		if i >= 0 && p.voices[i].IsFinished() {
			p.noteToIndex[note] = -1
		}
	}
}

// touch moves voice i to the back of the allocation order.
func (p *Pool) touch(i int) {
	n := 0
	for _, k := range p.order {
		if k != i {
			p.order[n] = k
			n++
		}
	}
	p.order = append(p.order[:n], i)
}

func (p *Pool) steal() int {
	if p.policy == StealOldest {
		return p.stealOldest()
	}
	return p.stealQuietest()
}

func (p *Pool) stealQuietest() int {
	quiet := 0
	lowest := p.voices[0].Amplitude()
	for i := 1; i < len(p.voices); i++ {
		if amp := p.voices[i].Amplitude(); amp < lowest {
			lowest = amp
			quiet = i
		}
	}
	return quiet
}

func (p *Pool) stealOldest() int {
	oldest := -1
	for i := range p.voices {
		v := &p.voices[i]
		if !v.IsFinished() {
			continue
		}
		if oldest == -1 || v.StartTime() < p.voices[oldest].StartTime() {
			oldest = i
		}
	}
	if oldest >= 0 {
		return oldest
	}
	return p.order[0]
}

// Lookup returns the voice index note is mapped to.
func (p *Pool) Lookup(note int) (int, bool) {
	if note < 0 || note >= numNotes {
		return -1, false
	}
	i := p.noteToIndex[note]
	return i, i >= 0
}

// Len returns the number of voices created so far.
func (p *Pool) Len() int { return len(p.voices) }

func (p *Pool) Cap() int { return cap(p.voices) }

func (p *Pool) Voice(i int) *Voice { return &p.voices[i] }

// Order returns the allocation order, least recently triggered first. The
// returned slice is owned by the pool.
func (p *Pool) Order() []int { return p.order }

// ActiveVoices returns the number of voices that have not finished.
func (p *Pool) ActiveVoices() int {
	var n int
	for i := range p.voices {
		if !p.voices[i].IsFinished() {
			n++
		}
	}
	return n
}

func (p *Pool) Policy() StealPolicy { return p.policy }

func (p *Pool) SetPolicy(policy StealPolicy) { p.policy = policy }

func (p *Pool) EnvelopeParams() EnvelopeParams { return p.params }

// SetEnvelope applies params to every voice, including the ones created later.
// Sounding voices keep their stage and level.
func (p *Pool) SetEnvelope(params EnvelopeParams) {
	p.params = params
	for i := range p.voices {
		p.voices[i].env.SetParams(params)
	}
}

func (p *Pool) SetSampleRate(sampleRate float64) {
	p.sampleRate = sampleRate
	for i := range p.voices {
		p.voices[i].setSampleRate(sampleRate)
	}
}

// Reset silences every voice and forgets all note mappings. Voices stay
// allocated.
func (p *Pool) Reset() {
	for i := range p.voices {
		p.voices[i].env.Reset()
	}
	p.clearNotes()
}

// NextSample sums one sample of every allocated voice. Finished voices are
// advanced too so their phase keeps running.
func (p *Pool) NextSample() float64 {
	var sum float64
	for i := range p.voices {
		sum += p.voices[i].NextSample()
	}
	return sum
}
