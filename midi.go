package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/mrdg/nxo/audio"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// listenMIDI plays the notes arriving on the input port called name, or the
// first port whose name contains it. The returned function closes the port.
func listenMIDI(name string, synth *audio.Instrument) (func(), error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi: open driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midi: list inputs: %w", err)
	}
	in := findPort(ins, name)
	if in == nil {
		drv.Close()
		return nil, fmt.Errorf("midi: input %q not found", name)
	}
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("midi: open %s: %w", in, err)
	}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		synth.HandleMIDI(msg)
	}, midi.HandleError(func(err error) {
		log.Printf("midi: %s: %v", in, err)
	}))
	if err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("midi: listen to %s: %w", in, err)
	}
	return func() {
		stop()
		in.Close()
		drv.Close()
	}, nil
}

func findPort(ins []drivers.In, name string) drivers.In {
	for _, in := range ins {
		if in.String() == name {
			return in
		}
	}
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in
		}
	}
	return nil
}
