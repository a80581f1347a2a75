package viewer

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"gltf-data-viewer/internal/material"
)

// ErrUnknownCommand is returned by Apply for an unrecognized op.
var ErrUnknownCommand = errors.New("unknown command")

// Settings is everything the panel can change.
type Settings struct {
	AutoRotate bool    `json:"autoRotate"`
	Grid       bool    `json:"grid"`
	Background string  `json:"background"`
	HideCells  bool    `json:"hideCells"`
	Threshold  float64 `json:"threshold"`
	Entity     string  `json:"entity"`
	Filter     string  `json:"filter"`
}

// DefaultSettings returns the startup panel state.
func DefaultSettings() Settings {
	return Settings{Background: "#191919"}
}

// Selection returns the binding part of s.
func (s Settings) Selection() material.Selection {
	return material.Selection{Entity: s.Entity, HideCells: s.HideCells, Threshold: s.Threshold}
}

// BackgroundColor parses s.Background, falling back to black.
func (s Settings) BackgroundColor() colorful.Color {
	c, err := colorful.Hex(s.Background)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// Dirty flags derived state a command invalidated. It is zero when only
// per-frame settings changed.
type Dirty uint8

const (
	DirtyBackground Dirty = 1 << iota
	DirtyMaterials
	DirtyList
)

func (d Dirty) Has(f Dirty) bool { return d&f != 0 }

// Command ops.
const (
	OpAutoRotate = "autoRotate"
	OpGrid       = "grid"
	OpBackground = "background"
	OpHideCells  = "hideCells"
	OpThreshold  = "threshold"
	OpFilter     = "filter"
	OpSelect     = "select"
)

// Command is one panel interaction.
type Command struct {
	Op     string  `json:"op"`
	Bool   bool    `json:"bool,omitempty"`
	Number float64 `json:"number,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// Apply mutates s according to cmd. s is unchanged when an error is
// returned.
func Apply(s *Settings, cmd Command) (Dirty, error) {
	switch cmd.Op {
	case OpAutoRotate:
		s.AutoRotate = cmd.Bool
		return 0, nil
	case OpGrid:
		s.Grid = cmd.Bool
		return 0, nil
	case OpBackground:
		c, err := colorful.Hex(cmd.Text)
		if err != nil {
			return 0, fmt.Errorf("background %q: %w", cmd.Text, err)
		}
		s.Background = c.Hex()
		return DirtyBackground, nil
	case OpHideCells:
		s.HideCells = cmd.Bool
		return DirtyMaterials, nil
	case OpThreshold:
		if math.IsNaN(cmd.Number) {
			return 0, fmt.Errorf("threshold: not a number")
		}
		s.Threshold = math.Min(1, math.Max(0, cmd.Number))
		return DirtyMaterials, nil
	case OpFilter:
		s.Filter = cmd.Text
		return DirtyList, nil
	case OpSelect:
		s.Entity = cmd.Text
		return DirtyMaterials, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
}

// Snapshot is what the panel shows.
type Snapshot struct {
	State     string   `json:"state"`
	Settings  Settings `json:"settings"`
	Entities  []string `json:"entities"`
	Total     int      `json:"total"`
	Unmatched []string `json:"unmatched,omitempty"`
	Notice    string   `json:"notice,omitempty"`
}
