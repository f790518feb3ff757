package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/nxo/audio"
	"github.com/mrdg/nxo/dub"
	"github.com/mrdg/nxo/rpc"
)

const (
	synthDevice = "synth"
	seqDevice   = "seq"
	stepSize    = 16 // steps per bar of 4/4 in match expressions
)

type env struct {
	config    audio.Config
	synth     *audio.Instrument
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	ui        *rpc.Endpoint
	send      rpc.SendFunc
}

func newEnv(cfg audio.Config) *env {
	cfg = cfg.WithDefaults()
	synth := audio.NewInstrument(audio.NewProps(), cfg)
	sequencer := audio.NewSequencer(audio.NewProps(), cfg.SampleRate)
	engine := newEngine(synth)
	ui := rpc.NewEndpoint()
	send, _ := rpc.Link(ui, engine)
	return &env{
		config:    cfg,
		synth:     synth,
		sequencer: sequencer,
		devices: map[string]audio.Device{
			synthDevice: synth,
			seqDevice:   sequencer,
		},
		ui:   ui,
		send: send,
	}
}

func (e *env) device(name string) (audio.Device, error) {
	dev, ok := e.devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", name)
	}
	return dev, nil
}

func (e *env) setProp(device, prop string, v interface{}) error {
	dev, err := e.device(device)
	if err != nil {
		return err
	}
	return dev.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	return dev.Get(prop)
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		result, err := env.eval(line)
		switch {
		case err != nil:
			fmt.Println(err)
		case result != nil:
			fmt.Println(result)
		}
	}
}

type command struct {
	name  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"on", onCommand, -1},
		{"off", offCommand, 1},
		{"set", setCommand, 3},
		{"get", getCommand, 2},
		{"preset", presetCommand, 2},
		{"loop", loopCommand, -3},
		{"unloop", unloopCommand, 1},
		{"render", renderCommand, -2},
		{"voices", voicesCommand, 0},
		{"call", callCommand, -1},
		{"fetch", fetchCommand, 1},
		{"help", helpCommand, 0},
	}
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	var names []string
	for _, cmd := range commands {
		names = append(names, cmd.name)
	}
	return dub.String(strings.Join(names, " ")), nil
}

func onCommand(env *env, args []dub.Node) (dub.Node, error) {
	if len(args) > 2 {
		return nil, errors.New("want a note and an optional velocity")
	}
	var note int
	if err := readArgs(args[:1], &note); err != nil {
		return nil, err
	}
	velocity := 1.0
	if len(args) == 2 {
		if err := readArgs(args[1:], &velocity); err != nil {
			return nil, err
		}
	}
	env.synth.NoteOn(0, note, velocity)
	return nil, nil
}

func offCommand(env *env, args []dub.Node) (dub.Node, error) {
	var note int
	if err := readArgs(args, &note); err != nil {
		return nil, err
	}
	env.synth.NoteOff(0, note)
	return nil, nil
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return nil, err
	}
	switch v := args[2].(type) {
	case dub.Int, dub.Float:
		f, _ := dub.Number(v)
		return nil, env.setProp(device, prop, f)
	case dub.String:
		return nil, env.setProp(device, prop, string(v))
	case dub.Identifier:
		return nil, env.setProp(device, prop, string(v))
	default:
		return nil, fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args, &device, &prop); err != nil {
		return nil, err
	}
	v, err := env.getProp(device, prop)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case float64:
		return dub.Float(v), nil
	case fmt.Stringer:
		return dub.String(v.String()), nil
	case map[string]*audio.Clip:
		var names []string
		for name := range v {
			names = append(names, name)
		}
		return dub.String(strings.Join(names, " ")), nil
	default:
		return dub.String(fmt.Sprint(v)), nil
	}
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, name string
	if err := readArgs(args, &device, &name); err != nil {
		return nil, err
	}
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	return nil, audio.LoadPreset(name, dev)
}

// loopCommand adds a clip to the sequencer:
//
//	loop name device beats [pattern]
//	loop name device beats [notes] 'expr
//
// The first form divides the clip evenly between the items of the pattern.
// The second plays the notes in turn on the sixteenth steps selected by the
// match expression.
func loopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var patternName, device string
	var length float64
	var pattern []dub.Node
	if len(args) != 4 && len(args) != 5 {
		return nil, errors.New("want a name, a device, a length and a pattern")
	}
	if err := readArgs(args[:4], &patternName, &device, &length, &pattern); err != nil {
		return nil, err
	}
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	playable, ok := dev.(audio.Playable)
	if !ok {
		return nil, fmt.Errorf("device is not playable: %s", device)
	}

	var notes []patternNote
	if len(args) == 5 {
		expr, ok := args[4].(dub.MatchExpr)
		if !ok {
			return nil, fmt.Errorf("argument error: expected a match expression")
		}
		notes, err = stepNotes(pattern, expr, length)
	} else {
		notes, err = evalPattern(pattern, length, 0)
	}
	if err != nil {
		return nil, err
	}

	clip := audio.NewClip(length, playable)
	for _, n := range notes {
		clip.AddNote(n.pos, n.pitch, n.length)
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) {
		clips[patternName] = clip
	})
}

func unloopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var patternName string
	if err := readArgs(args, &patternName); err != nil {
		return nil, err
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) {
		delete(clips, patternName)
	})
}

// updateClips replaces the sequencer's clips with an updated copy so the
// audio thread never sees a map that is being modified.
func (e *env) updateClips(update func(map[string]*audio.Clip)) error {
	v, err := e.getProp(seqDevice, audio.PropClips)
	if err != nil {
		return err
	}
	old := v.(map[string]*audio.Clip)
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	update(clips)
	return e.setProp(seqDevice, audio.PropClips, clips)
}

// renderCommand renders a pattern to a WAV file using the current synth
// settings: render "file" seconds [pattern]
func renderCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	var seconds float64
	pattern := defaultPattern
	switch len(args) {
	case 2:
		if err := readArgs(args, &file, &seconds); err != nil {
			return nil, err
		}
	case 3:
		if err := readArgs(args, &file, &seconds, &pattern); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("want a file, a length and an optional pattern")
	}
	frames, err := env.renderFile(file, pattern, seconds)
	if err != nil {
		return nil, err
	}
	return dub.String(fmt.Sprintf("wrote %d frames to %s", frames, file)), nil
}

var defaultPattern = []dub.Node{dub.Int(60), dub.Int(64), dub.Int(67), dub.Int(72)}

// renderFile plays pattern over the given number of seconds with a fresh
// synth configured like the live one and writes the result to file. It
// returns the number of frames written.
func (e *env) renderFile(file string, pattern []dub.Node, seconds float64) (int, error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid length: %v", seconds)
	}
	notes, err := evalPattern(pattern, seconds, 0)
	if err != nil {
		return 0, err
	}
	cfg := e.config
	cfg.Envelope = e.synth.EnvelopeParams()
	if v, err := e.getProp(synthDevice, audio.PropSteal); err == nil {
		cfg.Policy = v.(audio.StealPolicy)
	}
	level := -10.0
	if v, err := e.getProp(synthDevice, audio.PropLevel); err == nil {
		level = v.(float64)
	}

	sr := cfg.SampleRate
	var events []audio.Event
	for _, n := range notes {
		start := int(n.pos * sr)
		events = append(events,
			audio.NoteOnAt(start, n.pitch, 1),
			audio.NoteOffAt(start+int(n.length*sr), n.pitch))
	}
	// leave room for the last release
	frames := int((seconds + cfg.Envelope.Release) * sr)
	const channels = 2
	samples := audio.Render(audio.NewSynth(cfg), events, frames, channels, audio.ConstantGain(math.Pow(10, level/20)))

	f, err := os.Create(file)
	if err != nil {
		return 0, err
	}
	if err := audio.WriteWAV(f, samples, channels, int(sr)); err != nil {
		f.Close()
		return 0, err
	}
	return frames, f.Close()
}

func voicesCommand(env *env, args []dub.Node) (dub.Node, error) {
	var b strings.Builder
	renderVoices(&b, env.synth.Stats(), env.synth.Voices())
	return dub.String(strings.TrimRight(b.String(), "\n")), nil
}

// callCommand calls a function of the engine and returns the id to fetch
// its result with.
func callCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args[:1], &name); err != nil {
		return nil, err
	}
	var params []interface{}
	for _, arg := range args[1:] {
		params = append(params, nodeValue(arg))
	}
	id := env.ui.Call(env.send, name, params...)
	return dub.Int(id), nil
}

func fetchCommand(env *env, args []dub.Node) (dub.Node, error) {
	var id int
	if err := readArgs(args, &id); err != nil {
		return nil, err
	}
	if id < 0 {
		return nil, fmt.Errorf("invalid id: %d", id)
	}
	result, ok := env.ui.TakeResult(uint32(id))
	if !ok {
		return nil, fmt.Errorf("no result for %d", id)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return dub.String(data), nil
}

// nodeValue converts a parsed argument to a JSON value.
func nodeValue(n dub.Node) interface{} {
	switch v := n.(type) {
	case dub.Int:
		return float64(v)
	case dub.Float:
		return float64(v)
	case dub.String:
		return string(v)
	case dub.Identifier:
		return string(v)
	case dub.Array:
		return nodeValues(v)
	case dub.Tuple:
		return nodeValues(v)
	default:
		return nil
	}
}

func nodeValues(nodes []dub.Node) []interface{} {
	values := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, nodeValue(n))
	}
	return values
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			f, ok := dub.Number(arg)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = f
		case *int:
			i, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(i)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
