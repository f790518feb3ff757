package audio

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Props stores device configuration that can be updated without locks. All properties
// should be registered before any reads take place.
type Props struct {
	properties map[string]*atomic.Value
	setters    map[string]setter
}

func NewProps() *Props {
	return &Props{
		properties: make(map[string]*atomic.Value),
		setters:    make(map[string]setter),
	}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value interface{}) error {
	prop, ok := p.properties[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	set, ok := p.setters[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := set(value, prop); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	prop, ok := p.properties[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.Load(), nil
}

// Keys returns the registered property names in sorted order.
func (p *Props) Keys() []string {
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a new property.
func (p *Props) Register(key string, set setter, init interface{}) (*atomic.Value, error) {
	var prop atomic.Value
	p.properties[key] = &prop
	p.setters[key] = set
	return &prop, set(init, &prop)
}

func (p *Props) MustRegister(key string, set setter, init interface{}) *atomic.Value {
	if prop, err := p.Register(key, set, init); err != nil {
		panic(err)
	} else {
		return prop
	}
}

type setter func(val interface{}, dest *atomic.Value) error

// Range of the envelope time properties in seconds.
const (
	minEnvTime = 0.001
	maxEnvTime = 15
)

var (
	setEnvParam = setFloat64(minEnvTime, maxEnvTime)
	setLevel    = setFloat64(-30, 0)
	setSustain  = setFloat64(0, 1)
)

func setFloat64(min, max float64) setter {
	return func(v interface{}, dest *atomic.Value) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		dest.Store(f)
		return nil
	}
}

func setCurve(v interface{}, dest *atomic.Value) error {
	switch c := v.(type) {
	case Curve:
		dest.Store(c)
	case string:
		curve, err := ParseCurve(c)
		if err != nil {
			return err
		}
		dest.Store(curve)
	default:
		return fmt.Errorf("value is not a curve: %v", v)
	}
	return nil
}

func setStealPolicy(v interface{}, dest *atomic.Value) error {
	switch p := v.(type) {
	case StealPolicy:
		dest.Store(p)
	case string:
		policy, err := ParseStealPolicy(p)
		if err != nil {
			return err
		}
		dest.Store(policy)
	default:
		return fmt.Errorf("value is not a steal policy: %v", v)
	}
	return nil
}
