package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"midi-lamps/note"
)

// Duration is a time.Duration stored as a Go duration string ("5s")
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the main configuration structure
type Config struct {
	Host              string         `json:"host"`
	Path              string         `json:"path,omitempty"`
	DevicePrefix      string         `json:"devicePrefix"`
	Lamps             map[int]uint64 `json:"lamps"` // scale index -> lamp id
	QueueSize         int            `json:"queueSize,omitempty"`
	PollInterval      Duration       `json:"pollInterval,omitempty"`
	RetryDelay        Duration       `json:"retryDelay,omitempty"`
	HeartbeatInterval Duration       `json:"heartbeatInterval,omitempty"`
	WriteTimeout      Duration       `json:"writeTimeout,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:         "casa.sidharta.xyz",
		Path:         "/api/lamp/websocket",
		DevicePrefix: "CASIO",
		Lamps: map[int]uint64{
			0: 0x0000000012d3f0a1, // C: ceiling lamp
			2: 0x0000000012d3f0b7, // D: light strip
		},
		QueueSize:         100,
		PollInterval:      Duration(time.Second),
		RetryDelay:        Duration(5 * time.Second),
		HeartbeatInterval: Duration(time.Second),
		WriteTimeout:      Duration(5 * time.Second),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midi-lamps"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file. Fields missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// a lamps object in the file replaces the default table instead of merging into it
	defaults := cfg.Lamps
	cfg.Lamps = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Lamps == nil {
		cfg.Lamps = defaults
	}

	return cfg, nil
}

// Save writes the config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem with the config at once
func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.DevicePrefix == "" {
		errs = append(errs, errors.New("devicePrefix is required"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queueSize must be positive, got %d", c.QueueSize))
	}
	for name, d := range map[string]Duration{
		"pollInterval":      c.PollInterval,
		"retryDelay":        c.RetryDelay,
		"heartbeatInterval": c.HeartbeatInterval,
		"writeTimeout":      c.WriteTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	for idx := range c.Lamps {
		if idx < 0 || idx >= note.NumClasses {
			errs = append(errs, fmt.Errorf("lamp scale index %d out of range 0-11", idx))
		}
	}
	return errors.Join(errs...)
}

// URL returns the websocket endpoint of the lamp service
func (c *Config) URL() string {
	path := c.Path
	if path == "" {
		path = "/api/lamp/websocket"
	}
	u := url.URL{Scheme: "ws", Host: c.Host, Path: path}
	return u.String()
}

// LampMap converts the configured lamps for the translator
func (c *Config) LampMap() note.LampMap {
	lamps := make(note.LampMap, len(c.Lamps))
	for idx, id := range c.Lamps {
		lamps[note.PitchClass(idx)] = id
	}
	return lamps
}
