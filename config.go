package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/mrdg/nxo/audio"
)

const defaultConfig = `
{
	"sampleRate": 44100,
	"maxVoices": 16,
	"level": -10,
	"steal": "quietest",
	"envelope": {
		"attack": 0.01,
		"decay": 0.05,
		"sustain": 0.7,
		"release": 0.1,
		"curve": "exp"
	}
}
`

// StaticConfig is only read at startup.
type StaticConfig struct {
	SampleRate int `json:"sampleRate"`
	MaxVoices  int `json:"maxVoices"`
}

type EnvelopeConfig struct {
	Attack  *float64 `json:"attack"`
	Decay   *float64 `json:"decay"`
	Sustain *float64 `json:"sustain"`
	Release *float64 `json:"release"`
	Curve   string   `json:"curve"`
}

// DynamicConfig is applied again whenever the config file changes. Missing
// values leave the current setting alone.
type DynamicConfig struct {
	Level    *float64        `json:"level"`
	Steal    string          `json:"steal"`
	Envelope *EnvelopeConfig `json:"envelope"`
}

type Config struct {
	StaticConfig
	DynamicConfig
}

// ReadConfig reads the config file at p, creating it with the default
// settings if it does not exist.
func ReadConfig(p string) (*Config, error) {
	if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
		err = ioutil.WriteFile(p, []byte(defaultConfig), 0644)
		if err != nil {
			return nil, fmt.Errorf("can't write defaultConfig: %w", err)
		}
	}
	data, err := ioutil.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("can't read config: %w", err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshalling: %w", err)
	}
	return &c, nil
}

// synthConfig merges the static settings into cfg.
func (c *Config) synthConfig(cfg audio.Config) audio.Config {
	if c.SampleRate > 0 {
		cfg.SampleRate = float64(c.SampleRate)
	}
	if c.MaxVoices > 0 {
		cfg.MaxVoices = c.MaxVoices
	}
	return cfg
}

// apply sets the dynamic settings as properties of d.
func (c *DynamicConfig) apply(d audio.Device) error {
	props := make(map[string]interface{})
	if c.Level != nil {
		props[audio.PropLevel] = *c.Level
	}
	if c.Steal != "" {
		props[audio.PropSteal] = c.Steal
	}
	if env := c.Envelope; env != nil {
		for key, v := range map[string]*float64{
			audio.PropEnvAttack:  env.Attack,
			audio.PropEnvDecay:   env.Decay,
			audio.PropEnvSustain: env.Sustain,
			audio.PropEnvRelease: env.Release,
		} {
			if v != nil {
				props[key] = *v
			}
		}
		if env.Curve != "" {
			props[audio.PropEnvCurve] = env.Curve
		}
	}
	for key, v := range props {
		if err := d.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

func Watch(path string, configs chan<- *Config, errors chan<- error, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	go func() {
	loop:
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					break loop
				}
				// editors often replace the file instead of writing to it
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) > 0 {
					c, err := ReadConfig(path)
					if err != nil {
						select {
						case errors <- err:
						case <-done:
							break loop
						}
						continue loop
					}
					select {
					case configs <- c:
					case <-done:
						break loop
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					break loop
				}
				select {
				case errors <- err:
				case <-done:
					break loop
				}
			case <-done:
				break loop
			}
		}
		// ignore close error
		watcher.Close()
	}()
	return watcher.Add(path)
}

// watchConfig applies changes to the config file at path to d until done is
// closed.
func watchConfig(path string, d audio.Device, done <-chan struct{}) error {
	configs := make(chan *Config)
	errs := make(chan error)
	if err := Watch(path, configs, errs, done); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case c := <-configs:
				if err := c.apply(d); err != nil {
					log.Printf("config: %v", err)
				}
			case err := <-errs:
				log.Printf("config: %v", err)
			case <-done:
				return
			}
		}
	}()
	return nil
}
