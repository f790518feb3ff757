package main

import (
	"math"
	"time"

	"github.com/mrdg/nxo/audio"
	"github.com/mrdg/nxo/rpc"
)

const (
	luaTimeout    = 2 * time.Second
	previewPoints = 64
	maxPoints     = 4096
)

// newEngine returns the endpoint that serves the synth's functions to a UI.
func newEngine(synth *audio.Instrument) *rpc.Endpoint {
	engine := rpc.NewEndpoint()
	engine.Register("preview", rpc.HandlerFunc(func(args []interface{}) interface{} {
		return preview(synth.EnvelopeParams(), args)
	}))
	engine.Register("status", rpc.HandlerFunc(func([]interface{}) interface{} {
		return status(synth.Stats(), synth.Voices())
	}))
	engine.Register("lua", rpc.LuaHandler{Timeout: luaTimeout})
	return engine
}

// preview returns the envelope levels of a note held for args[0] seconds,
// sampled at args[1] points.
func preview(params audio.EnvelopeParams, args []interface{}) interface{} {
	hold := params.Attack + params.Decay
	points := previewPoints
	if len(args) > 0 {
		if f, ok := args[0].(float64); ok && f >= 0 && !math.IsInf(f, 1) {
			hold = f
		}
	}
	if len(args) > 1 {
		// bound while still a float, huge values overflow int
		if f, ok := args[1].(float64); ok && f >= 2 {
			points = int(math.Min(f, maxPoints))
		}
	}
	curve := audio.PreviewCurve(params, hold, make([]float64, points))
	levels := make([]interface{}, len(curve))
	for i, v := range curve {
		levels[i] = v
	}
	return levels
}

func status(stats audio.Stats, voices []audio.VoiceInfo) interface{} {
	list := make([]interface{}, 0, len(voices))
	for _, v := range voices {
		list = append(list, map[string]interface{}{
			"note":  v.Note,
			"state": v.State.String(),
			"level": v.Level,
		})
	}
	return map[string]interface{}{
		"capacity": stats.Capacity,
		"voices":   stats.Voices,
		"active":   stats.Active,
		"frames":   stats.Frames,
		"list":     list,
	}
}
