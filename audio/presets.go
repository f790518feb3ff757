package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"default": {
		PropEnvAttack:  0.01,
		PropEnvDecay:   0.05,
		PropEnvSustain: 0.7,
		PropEnvRelease: 0.1,
		PropEnvCurve:   "exp",
	},
	"pad": {
		PropEnvAttack:  0.8,
		PropEnvDecay:   1.5,
		PropEnvSustain: 0.6,
		PropEnvRelease: 2.5,
		PropEnvCurve:   "exp",
	},
	"pluck": {
		PropEnvAttack:  0.002,
		PropEnvDecay:   0.25,
		PropEnvSustain: 0.,
		PropEnvRelease: 0.15,
		PropEnvCurve:   "exp",
	},
	"organ": {
		PropEnvAttack:  0.005,
		PropEnvDecay:   0.001,
		PropEnvSustain: 1.,
		PropEnvRelease: 0.02,
		PropEnvCurve:   "linear",
	},
}

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}
