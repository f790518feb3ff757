package audio

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// event is a queued note event. A positive duration schedules the matching
// note-off that many samples after the note-on.
type event struct {
	Event
	duration int
}

// eventBuffer is a lock-free queue with a single consumer. Producers take a
// mutex among themselves, the consumer never blocks.
type eventBuffer struct {
	mu          sync.Mutex
	events      []event
	read, write *uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
		read:   new(uint32),
		write:  new(uint32),
	}
}

// push waits for space when the buffer is full.
func (b *eventBuffer) push(ev event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for atomic.LoadUint32(b.write)-atomic.LoadUint32(b.read) == uint32(len(b.events)) {
		runtime.Gosched()
	}
	write := atomic.LoadUint32(b.write)
	b.events[write%uint32(len(b.events))] = ev
	atomic.StoreUint32(b.write, write+1)
}

// drain appends all queued events to dst, stopping early when dst is full.
func (b *eventBuffer) drain(dst []event) []event {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for read != write && len(dst) < cap(dst) {
		dst = append(dst, b.events[read%uint32(len(b.events))])
		read++
	}
	atomic.StoreUint32(b.read, read)
	return dst
}
