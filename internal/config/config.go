// Package config provides configuration management for cartography.
//
// Everything that is policy rather than invariant lives here: the
// dataset directory, the layout parameters that shape the universe,
// and the camera/console bindings handed through to the rendering
// engine. Config file locations (priority order):
//
//  1. $CARTOGRAPHY_CONFIG
//  2. ./cartography.yaml
//  3. ~/.config/cartography/config.yaml
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration
type Config struct {
	Version  int            `yaml:"version"`
	Addr     string         `yaml:"addr"`
	Datasets DatasetsConfig `yaml:"datasets"`
	Database DatabaseConfig `yaml:"database"`
	Layout   LayoutConfig   `yaml:"layout"`
	Camera   CameraConfig   `yaml:"camera"`
	Console  ConsoleConfig  `yaml:"console"`
}

// DatasetsConfig controls dataset discovery
type DatasetsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// DatabaseConfig controls the snapshot repository. The default
// ":memory:" keeps the pipeline free of disk writes; pointing it at a
// file turns the repository into a persistent layout cache.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LayoutConfig is the spatial layout policy. The defaults reproduce
// the envelope of the original cartography scene.
type LayoutConfig struct {
	Algorithm         string  `yaml:"algorithm"`
	SpaceLimit        float32 `yaml:"space_limit"`
	ShellBaseRadius   float32 `yaml:"shell_base_radius"`
	ShellSpacing      float32 `yaml:"shell_spacing"`
	ShellThickness    float32 `yaml:"shell_thickness"`
	NodeMinScale      float32 `yaml:"node_min_scale"`
	NodeMaxScale      float32 `yaml:"node_max_scale"`
	EdgeMinWidth      float32 `yaml:"edge_min_width"`
	EdgeMaxWidth      float32 `yaml:"edge_max_width"`
	EdgeWeightCap     int     `yaml:"edge_weight_cap"`
	LabelFadeDistance float32 `yaml:"label_fade_distance"`
}

// CameraConfig is pass-through configuration for the engine's fly
// camera
type CameraConfig struct {
	MoveSpeed       float32           `yaml:"move_speed"`
	LookSensitivity float32           `yaml:"look_sensitivity"`
	Bindings        map[string]string `yaml:"bindings,omitempty"`
}

// ConsoleConfig is pass-through configuration for the engine's
// in-scene console
type ConsoleConfig struct {
	Enabled   bool     `yaml:"enabled"`
	ToggleKey string   `yaml:"toggle_key"`
	Commands  []string `yaml:"commands,omitempty"`
}

// Load finds and loads the config file, or returns defaults if none
// found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultBindings returns the default camera key bindings
func DefaultBindings() map[string]string {
	return map[string]string{
		"forward": "KeyW",
		"back":    "KeyS",
		"left":    "KeyA",
		"right":   "KeyD",
		"down":    "KeyQ",
		"up":      "KeyE",
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Datasets.Dir == "" {
		c.Datasets.Dir = "datasets"
	}
	if c.Database.Path == "" {
		c.Database.Path = ":memory:"
	}

	l := &c.Layout
	if l.Algorithm == "" {
		l.Algorithm = "shell"
	}
	if l.SpaceLimit == 0 {
		l.SpaceLimit = 6000
	}
	if l.ShellBaseRadius == 0 {
		l.ShellBaseRadius = 1200
	}
	if l.ShellSpacing == 0 {
		l.ShellSpacing = 900
	}
	if l.ShellThickness == 0 {
		l.ShellThickness = 300
	}
	if l.NodeMinScale == 0 {
		l.NodeMinScale = 10
	}
	if l.NodeMaxScale == 0 {
		l.NodeMaxScale = 50
	}
	if l.EdgeMinWidth == 0 {
		l.EdgeMinWidth = 0.2
	}
	if l.EdgeMaxWidth == 0 {
		l.EdgeMaxWidth = 20
	}
	if l.EdgeWeightCap == 0 {
		l.EdgeWeightCap = 1000
	}
	if l.LabelFadeDistance == 0 {
		l.LabelFadeDistance = 4000
	}

	if c.Camera.MoveSpeed == 0 {
		c.Camera.MoveSpeed = 600
	}
	if c.Camera.LookSensitivity == 0 {
		c.Camera.LookSensitivity = 0.002
	}
	if c.Camera.Bindings == nil {
		c.Camera.Bindings = DefaultBindings()
	}

	if c.Console.ToggleKey == "" {
		c.Console.Enabled = true
		c.Console.ToggleKey = "Backquote"
	}
	if c.Console.Commands == nil {
		c.Console.Commands = []string{"fps", "stats", "help"}
	}
}
