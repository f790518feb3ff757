package audio

import (
	"sync"
	"time"
)

// NewHeadlessSink returns a Sink that renders in real time without an output
// device and discards the audio. Notes, sequencer clips and voice stats
// behave as they do with a sound card.
func NewHeadlessSink(sampleRate float64, framesPerBuffer int) *Sink {
	s := &Sink{channels: sinkChannels}
	s.allocate(framesPerBuffer)
	period := time.Duration(float64(framesPerBuffer) / sampleRate * float64(time.Second))
	if period <= 0 {
		period = time.Millisecond
	}
	s.player = &headlessPlayer{sink: s, period: period}
	return s
}

type headlessPlayer struct {
	sink   *Sink
	period time.Duration
	once   sync.Once
	stop   chan struct{}
	done   chan struct{}
}

func (p *headlessPlayer) Play() {
	p.once.Do(func() {
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.run()
	})
}

func (p *headlessPlayer) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sink.Process(p.sink.bufs)
		case <-p.stop:
			return
		}
	}
}

func (p *headlessPlayer) Close() error {
	if p.stop != nil {
		close(p.stop)
		<-p.done
	}
	return nil
}
