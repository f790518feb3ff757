package audio

import (
	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(numSamples int)
}

const sinkChannels = 2

// NewSink opens the default portaudio output device.
func NewSink(sampleRate float64, framesPerBuffer int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{channels: sinkChannels}
	stream, err := portaudio.OpenDefaultStream(0, sinkChannels, sampleRate, framesPerBuffer, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

// Sink pulls audio from its sources on the audio thread. Sources and tickers
// have to be added before Start.
type Sink struct {
	sources  []Source
	tickers  []Ticker
	channels int
	stream   *portaudio.Stream
	player   otoPlayer
	bufs     [][]float32
}

func (s *Sink) Start() error {
	if s.player != nil {
		s.player.Play()
		return nil
	}
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	if s.player != nil {
		return s.player.Close()
	}
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	for _, ticker := range s.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
}
