package audio

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

type otoPlayer interface {
	Play()
	Close() error
}

// NewOtoSink opens the default output device through oto. Unlike NewSink it
// does not need cgo on most platforms.
func NewOtoSink(sampleRate int, framesPerBuffer int) (*Sink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: sinkChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(framesPerBuffer) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, err
	}
	<-ready
	s := &Sink{channels: sinkChannels}
	s.allocate(framesPerBuffer)
	s.player = ctx.NewPlayer(s)
	return s, nil
}

func (s *Sink) allocate(frames int) {
	s.bufs = make([][]float32, s.channels)
	for c := range s.bufs {
		s.bufs[c] = make([]float32, frames)
	}
}

// Read renders frames as interleaved little endian float32 samples. It is
// called by the oto player on its own goroutine.
func (s *Sink) Read(p []byte) (int, error) {
	const sampleSize = 4
	frames := len(p) / (sampleSize * s.channels)
	if frames == 0 {
		return 0, nil
	}
	if len(s.bufs) == 0 || cap(s.bufs[0]) < frames {
		s.allocate(frames)
	}
	for c := range s.bufs {
		s.bufs[c] = s.bufs[c][:frames]
	}
	s.Process(s.bufs)
	for f := 0; f < frames; f++ {
		for c := range s.bufs {
			off := (f*s.channels + c) * sampleSize
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s.bufs[c][f]))
		}
	}
	return frames * s.channels * sampleSize, nil
}
