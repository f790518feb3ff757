package audio

import (
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

const wavBits = 16

// WriteWAV writes interleaved samples in [-1, 1] as 16 bit PCM. Mono and
// stereo are supported.
func WriteWAV(w io.Writer, samples []float32, channels, sampleRate int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	frames := len(samples) / channels
	const scale = 1<<(wavBits-1) - 1
	buf := make([]wav.Sample, frames)
	for f := range buf {
		for c := 0; c < channels; c++ {
			v := clamp(float64(samples[f*channels+c]), -1, 1)
			buf[f].Values[c] = int(v * scale)
		}
	}
	writer := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), wavBits)
	if err := writer.WriteSamples(buf); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// WAVReader is what ReadWAV needs from its input, satisfied by *os.File and
// *bytes.Reader.
type WAVReader interface {
	io.Reader
	io.ReaderAt
}

// ReadWAV decodes a PCM WAV file into interleaved samples.
func ReadWAV(in WAVReader) (samples []float32, channels, sampleRate int, err error) {
	r := wav.NewReader(in)
	format, err := r.Format()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wav: read format: %w", err)
	}
	channels = int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, 0, 0, fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	scale := float32(int(1) << (format.BitsPerSample - 1))
	for {
		frames, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		for _, frame := range frames {
			for c := 0; c < channels; c++ {
				samples = append(samples, float32(frame.Values[c])/scale)
			}
		}
	}
	return samples, channels, int(format.SampleRate), nil
}
