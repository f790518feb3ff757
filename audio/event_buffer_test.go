package audio

import (
	"context"
	"sync"
	"testing"
)

func TestEventBufferCapacity(t *testing.T) {
	buf := newEventBuffer(8)
	buf.push(event{Event: NoteOnAt(2, 60, 1)})
	buf.push(event{Event: NoteOffAt(3, 60)})
	buf.push(event{Event: NoteOnAt(4, 62, 1), duration: 10})

	events := buf.drain(make([]event, 0, 2))
	if want, got := 2, len(events); want != got {
		t.Fatalf("expected %v events, got %v", want, got)
	}
	events = buf.drain(events[:0])
	if want, got := []event{{Event: NoteOnAt(4, 62, 1), duration: 10}}, events; len(got) != 1 || got[0] != want[0] {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}
	if got := buf.drain(events[:0]); len(got) != 0 {
		t.Errorf("expected empty buffer, got %v", got)
	}
}

func TestEventBuffer(t *testing.T) {
	buf := newEventBuffer(8)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var events []event
	scratch := make([]event, 0, 4)
	go func() {
		for {
			select {
			case <-ctx.Done():
				for {
					scratch = buf.drain(scratch[:0])
					if len(scratch) == 0 {
						break
					}
					events = append(events, scratch...)
				}
				done <- struct{}{}
				return
			default:
				scratch = buf.drain(scratch[:0])
				events = append(events, scratch...)
			}
		}
	}()

	const numEvents = 10_000
	for n := 0; n < numEvents; n++ {
		buf.push(event{Event: Event{Offset: n}})
	}

	cancel()
	<-done

	if len(events) != numEvents {
		t.Fatalf("wrong number of events: want %v, got %v", numEvents, len(events))
	}

	prev := -1
	for _, ev := range events {
		if want, got := prev+1, ev.Offset; want != got {
			t.Fatalf("discontinuous event offset: want: %v, got %v", want, got)
		}
		prev++
	}
}

func TestEventBufferProducers(t *testing.T) {
	buf := newEventBuffer(16)
	const producers, perProducer = 4, 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(note int) {
			defer wg.Done()
			for n := 0; n < perProducer; n++ {
				buf.push(event{Event: Event{Note: note, Offset: n}})
			}
		}(p)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	counts := make(map[int]int)
	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	scratch := make([]event, 0, 8)
	drain := func() {
		scratch = buf.drain(scratch[:0])
		for _, ev := range scratch {
			if ev.Offset != last[ev.Note]+1 {
				t.Errorf("producer %d: out of order offset %d after %d", ev.Note, ev.Offset, last[ev.Note])
			}
			last[ev.Note] = ev.Offset
			counts[ev.Note]++
		}
	}
loop:
	for {
		select {
		case <-finished:
			break loop
		default:
			drain()
		}
	}
	for {
		drain()
		if len(scratch) == 0 {
			break
		}
	}
	for p := 0; p < producers; p++ {
		if want, got := perProducer, counts[p]; want != got {
			t.Errorf("producer %d: want %v events, got %v", p, want, got)
		}
	}
}
