package audio

import (
	"log"
	"math"
	"sync/atomic"
)

const (
	bufferSize = 512 // frames rendered per chunk
	maxPending = 128 // scheduled note-offs
)

const (
	PropLevel      = "level"
	PropEnvAttack  = "env.attack"
	PropEnvDecay   = "env.decay"
	PropEnvSustain = "env.sustain"
	PropEnvRelease = "env.release"
	PropEnvCurve   = "env.curve"
	PropSteal      = "steal"
)

// VoiceInfo describes one voice of an Instrument as of the last rendered block.
type VoiceInfo struct {
	Note  int
	State State
	Level float64
}

// Stats is a snapshot of an Instrument taken after the last rendered block.
type Stats struct {
	Capacity int    // maximum number of voices
	Voices   int    // voices allocated so far
	Active   int    // voices that have not finished
	Frames   uint64 // frames rendered since the start
}

type voiceSnapshot struct {
	note  atomic.Int32
	state atomic.Int32
	level atomic.Uint64
}

type pendingOff struct {
	note int
	at   uint64
}

// Instrument makes a Synth playable from other goroutines. Note events are
// queued without locks on the audio side and applied at the start of the next
// block processed. Properties are read once per block.
type Instrument struct {
	*Props
	synth  *Synth
	events *eventBuffer
	queued []event
	block  []Event
	chunk  []Event
	mono   [1][]float32 // single channel view of the render buffer
	gain   *Smoother

	pending  [maxPending]pendingOff
	npending int
	clock    uint64

	level      *atomic.Value
	envAttack  *atomic.Value
	envDecay   *atomic.Value
	envSustain *atomic.Value
	envRelease *atomic.Value
	envCurve   *atomic.Value
	steal      *atomic.Value

	voices      []voiceSnapshot
	statVoices  atomic.Int64
	statActive  atomic.Int64
	statFrames  atomic.Uint64
	overflowLog bool
}

func NewInstrument(props *Props, cfg Config) *Instrument {
	cfg = cfg.WithDefaults()
	synth := NewSynth(cfg)
	params := synth.Pool().EnvelopeParams()
	i := &Instrument{
		Props:      props,
		synth:      synth,
		events:     newEventBuffer(256),
		queued:     make([]event, 0, maxBlockEvents),
		block:      make([]Event, 0, maxBlockEvents+maxPending),
		chunk:      make([]Event, 0, maxBlockEvents+maxPending),
		level:      props.MustRegister(PropLevel, setLevel, -10.0),
		envAttack:  props.MustRegister(PropEnvAttack, setEnvParam, clamp(params.Attack, minEnvTime, maxEnvTime)),
		envDecay:   props.MustRegister(PropEnvDecay, setEnvParam, clamp(params.Decay, minEnvTime, maxEnvTime)),
		envSustain: props.MustRegister(PropEnvSustain, setSustain, clamp(params.Sustain, 0, 1)),
		envRelease: props.MustRegister(PropEnvRelease, setEnvParam, clamp(params.Release, minEnvTime, maxEnvTime)),
		envCurve:   props.MustRegister(PropEnvCurve, setCurve, params.Curve),
		steal:      props.MustRegister(PropSteal, setStealPolicy, cfg.Policy),
		voices:     make([]voiceSnapshot, synth.Pool().Cap()),
	}
	i.mono[0] = make([]float32, bufferSize)
	i.gain = NewSmoother(cfg.SampleRate, dbToGain(i.level.Load().(float64)))
	return i
}

// NoteOn queues a note-on at offset frames into the next block.
func (i *Instrument) NoteOn(offset, note int, velocity float64) {
	i.events.push(event{Event: NoteOnAt(offset, note, velocity)})
}

// NoteOff queues a note-off at offset frames into the next block.
func (i *Instrument) NoteOff(offset, note int) {
	i.events.push(event{Event: NoteOffAt(offset, note)})
}

// PlayNote queues a note-on and releases it again duration samples later.
func (i *Instrument) PlayNote(offset, note int, velocity float64, duration int) {
	i.events.push(event{Event: NoteOnAt(offset, note, velocity), duration: duration})
}

// Process mixes the next len(samples[0]) frames into every channel of samples.
func (i *Instrument) Process(samples [][]float32) {
	if len(samples) == 0 {
		return
	}
	frames := len(samples[0])
	i.update()
	i.collectEvents(frames)

	next := 0
	for start := 0; start < frames; start += bufferSize {
		n := frames - start
		if n > bufferSize {
			n = bufferSize
		}
		i.chunk = i.chunk[:0]
		for ; next < len(i.block) && i.block[next].Offset < start+n; next++ {
			ev := i.block[next]
			ev.Offset -= start
			i.chunk = append(i.chunk, ev)
		}
		out := i.mono[0][:n]
		i.mono[0] = out
		i.synth.Process(i.mono[:], i.chunk, i.gain)
		for c := range samples {
			dst := samples[c][start : start+n]
			for k, v := range out {
				dst[k] += v
			}
		}
	}
	i.clock += uint64(frames)
	i.publish()
}

// update applies changed properties to the synth.
func (i *Instrument) update() {
	pool := i.synth.Pool()
	if params := i.EnvelopeParams(); params != pool.EnvelopeParams() {
		pool.SetEnvelope(params)
	}
	if policy := i.steal.Load().(StealPolicy); policy != pool.Policy() {
		pool.SetPolicy(policy)
	}
	i.gain.SetTarget(dbToGain(i.level.Load().(float64)))
}

// collectEvents gathers the queued events and the scheduled note-offs that
// fall into the next block of frames, sorted by offset.
func (i *Instrument) collectEvents(frames int) {
	i.block = i.block[:0]
	end := i.clock + uint64(frames)
	for k := 0; k < i.npending; {
		if p := i.pending[k]; p.at < end {
			i.block = append(i.block, NoteOffAt(int(p.at-i.clock), p.note))
			i.npending--
			i.pending[k] = i.pending[i.npending]
			continue
		}
		k++
	}

	i.queued = i.events.drain(i.queued[:0])
	for _, ev := range i.queued {
		i.block = append(i.block, ev.Event)
		if ev.Kind == NoteOn && ev.duration > 0 {
			i.schedule(ev.Note, i.clock+uint64(max(ev.Offset, 0)+ev.duration))
		}
	}
	sortEvents(i.block, frames)
}

func (i *Instrument) schedule(note int, at uint64) {
	if i.npending == len(i.pending) {
		if !i.overflowLog {
			log.Printf("instrument: too many scheduled notes, dropping note-off for %d", note)
			i.overflowLog = true
		}
		return
	}
	i.overflowLog = false
	i.pending[i.npending] = pendingOff{note: note, at: at}
	i.npending++
}

func (i *Instrument) publish() {
	pool := i.synth.Pool()
	for k := 0; k < pool.Len(); k++ {
		v := pool.Voice(k)
		snap := &i.voices[k]
		snap.note.Store(int32(v.Note()))
		snap.state.Store(int32(v.Envelope().State()))
		snap.level.Store(math.Float64bits(v.Amplitude()))
	}
	i.statVoices.Store(int64(pool.Len()))
	i.statActive.Store(int64(pool.ActiveVoices()))
	i.statFrames.Store(i.clock)
}

// Stats may be called from any goroutine.
func (i *Instrument) Stats() Stats {
	return Stats{
		Capacity: len(i.voices),
		Voices:   int(i.statVoices.Load()),
		Active:   int(i.statActive.Load()),
		Frames:   i.statFrames.Load(),
	}
}

// Voices returns the state of every allocated voice. It may be called from
// any goroutine; fields of a single voice can be from different blocks.
func (i *Instrument) Voices() []VoiceInfo {
	n := int(i.statVoices.Load())
	infos := make([]VoiceInfo, n)
	for k := range infos {
		snap := &i.voices[k]
		infos[k] = VoiceInfo{
			Note:  int(snap.note.Load()),
			State: State(snap.state.Load()),
			Level: math.Float64frombits(snap.level.Load()),
		}
	}
	return infos
}

// EnvelopeParams returns the envelope settings currently stored in the
// properties.
func (i *Instrument) EnvelopeParams() EnvelopeParams {
	return EnvelopeParams{
		Attack:  i.envAttack.Load().(float64),
		Decay:   i.envDecay.Load().(float64),
		Sustain: i.envSustain.Load().(float64),
		Release: i.envRelease.Load().(float64),
		Curve:   i.envCurve.Load().(Curve),
	}
}
