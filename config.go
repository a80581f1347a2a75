package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"gltf-data-viewer/internal/viewer"
)

const defaultConfigFile = "viewer.toml"

// Config is the viewer configuration. Values from the TOML file replace the
// defaults; command line flags replace both.
type Config struct {
	Title     string `toml:"title"`
	Model     string `toml:"model"`
	Data      string `toml:"data"`
	HTTPAddr  string `toml:"http"`
	StaticDir string `toml:"static"`
	Debug     bool   `toml:"debug"`
	FPS       int    `toml:"fps"`

	Window WindowConfig  `toml:"window"`
	Light  LightConfig   `toml:"light"`
	Panel  PanelDefaults `toml:"panel"`
}

type WindowConfig struct {
	Width  int32 `toml:"width"`
	Height int32 `toml:"height"`
}

// LightConfig is the ambient plus directional light attached to the camera.
type LightConfig struct {
	AmbientIntensity float32 `toml:"ambient_intensity"`
	AmbientColor     string  `toml:"ambient_color"`
	DirectIntensity  float32 `toml:"direct_intensity"`
	DirectColor      string  `toml:"direct_color"`
}

// PanelDefaults seeds the panel settings at startup.
type PanelDefaults struct {
	Entity     string  `toml:"entity"`
	Background string  `toml:"background"`
	AutoRotate bool    `toml:"auto_rotate"`
	Grid       bool    `toml:"grid"`
	HideCells  bool    `toml:"hide_cells"`
	Threshold  float64 `toml:"threshold"`
}

func defaultConfig() Config {
	return Config{
		Title:     "glTF Data Viewer",
		Model:     "public/Model.gltf",
		Data:      "public/data.csv",
		HTTPAddr:  ":8080",
		StaticDir: "./static",
		FPS:       60,
		Window:    WindowConfig{Width: 1280, Height: 800},
		Light: LightConfig{
			AmbientIntensity: 0.3,
			AmbientColor:     "#ffffff",
			DirectIntensity:  0.8 * 3.14159265,
			DirectColor:      "#ffffff",
		},
		Panel: PanelDefaults{
			Entity:     "AT1G01220-FKGP",
			Background: "#191919",
		},
	}
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Panel.Threshold < 0 || c.Panel.Threshold > 1 {
		return fmt.Errorf("panel threshold must be within [0,1], got %g", c.Panel.Threshold)
	}
	return nil
}

// FrameInterval is the render tick period.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Settings returns the initial panel settings.
func (c Config) Settings() viewer.Settings {
	s := viewer.DefaultSettings()
	if c.Panel.Background != "" {
		s.Background = c.Panel.Background
	}
	s.Entity = c.Panel.Entity
	s.AutoRotate = c.Panel.AutoRotate
	s.Grid = c.Panel.Grid
	s.HideCells = c.Panel.HideCells
	s.Threshold = c.Panel.Threshold
	return s
}
