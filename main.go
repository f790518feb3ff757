package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mrdg/nxo/audio"
)

func main() {
	var (
		sampleRate = flag.Int("rate", audio.DefaultSampleRate, "sample rate in Hz")
		voices     = flag.Int("voices", audio.DefaultMaxVoices, "maximum number of voices")
		bufferSize = flag.Int("buffer", 256, "frames per audio callback")
		backend    = flag.String("backend", "portaudio", "audio output: portaudio, oto or none")
		configPath = flag.String("config", "", "JSON config file, reloaded when it changes")
		midiIn     = flag.String("midi", "", "MIDI input port to play from")
		renderTo   = flag.String("render", "", "render the default pattern to a WAV file and exit")
		seconds    = flag.Float64("seconds", 4, "length of -render in seconds")
		preset     = flag.String("preset", "", "preset to load: "+strings.Join(audio.Presets(), ", "))
		run        = flag.String("run", "", "file with commands to run before the prompt")
	)
	flag.Parse()

	cfg := audio.DefaultConfig()
	cfg.SampleRate = float64(*sampleRate)
	cfg.MaxVoices = *voices

	var conf *Config
	if *configPath != "" {
		var err error
		conf, err = ReadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = conf.synthConfig(cfg)
	}

	env := newEnv(cfg)
	if conf != nil {
		if err := conf.apply(env.synth); err != nil {
			log.Fatal(err)
		}
	}
	if *preset != "" {
		if err := audio.LoadPreset(*preset, env.synth); err != nil {
			log.Fatal(err)
		}
	}

	if *renderTo != "" {
		frames, err := env.renderFile(*renderTo, defaultPattern, *seconds)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %d frames to %s\n", frames, *renderTo)
		return
	}

	sink, err := openSink(*backend, env.config.SampleRate, *bufferSize)
	if err != nil {
		log.Fatal(err)
	}
	sink.AddTicker(env.sequencer)
	sink.AddSources(env.synth)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	done := make(chan struct{})
	defer close(done)
	if *configPath != "" {
		if err := watchConfig(*configPath, env.synth, done); err != nil {
			log.Fatal(err)
		}
	}

	if *midiIn != "" {
		stop, err := listenMIDI(*midiIn, env.synth)
		if err != nil {
			log.Fatal(err)
		}
		defer stop()
	}

	if *run != "" {
		if err := runFile(env, *run); err != nil {
			log.Fatal(err)
		}
	}

	if err := repl(env); err != nil {
		fmt.Println(err)
	}
}

func openSink(backend string, sampleRate float64, bufferSize int) (*audio.Sink, error) {
	switch backend {
	case "portaudio":
		return audio.NewSink(sampleRate, bufferSize)
	case "oto":
		return audio.NewOtoSink(int(sampleRate), bufferSize)
	case "none":
		return audio.NewHeadlessSink(sampleRate, bufferSize), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}

// runFile evaluates every line of the file at path. Empty lines and lines
// starting with # are skipped.
func runFile(env *env, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if _, err := env.eval(text); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	return scanner.Err()
}
