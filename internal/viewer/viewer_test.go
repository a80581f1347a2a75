package viewer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-data-viewer/internal/material"
	"gltf-data-viewer/internal/scene"
)

func TestGateTransitions(t *testing.T) {
	var g Gate
	assert.Equal(t, StateWaiting, g.State())
	assert.False(t, g.CanRender())

	// Model and data may arrive before the panel is up.
	g.Fire(ModelLoaded)
	g.Fire(DataLoaded)
	assert.Equal(t, StateWaiting, g.State())
	assert.False(t, g.CanRender())

	from, to := g.Fire(UIInitialized)
	assert.Equal(t, StateWaiting, from)
	assert.Equal(t, StateReady, to)
	assert.True(t, g.CanRender())
	assert.True(t, g.CanBind())

	from, to = g.Fire(ModelCleared)
	assert.Equal(t, StateReady, from)
	assert.Equal(t, StateNoModel, to)
	assert.False(t, g.CanRender())
	assert.False(t, g.CanBind())
}

func TestGateNoData(t *testing.T) {
	var g Gate
	g.Fire(UIInitialized)
	assert.Equal(t, StateNoModel, g.State())
	g.Fire(ModelLoaded)
	assert.Equal(t, StateNoData, g.State())
	assert.True(t, g.CanRender())
	assert.False(t, g.CanBind())
	_, to := g.Fire(DataLoaded)
	assert.Equal(t, StateReady, to)
	assert.Equal(t, "ready", to.String())
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		cmd   Command
		dirty Dirty
		check func(t *testing.T, s Settings)
	}{
		{"auto rotate", Command{Op: OpAutoRotate, Bool: true}, 0,
			func(t *testing.T, s Settings) { assert.True(t, s.AutoRotate) }},
		{"grid", Command{Op: OpGrid, Bool: true}, 0,
			func(t *testing.T, s Settings) { assert.True(t, s.Grid) }},
		{"background", Command{Op: OpBackground, Text: "#FF8000"}, DirtyBackground,
			func(t *testing.T, s Settings) { assert.Equal(t, "#ff8000", s.Background) }},
		{"hide cells", Command{Op: OpHideCells, Bool: true}, DirtyMaterials,
			func(t *testing.T, s Settings) { assert.True(t, s.HideCells) }},
		{"threshold clamps", Command{Op: OpThreshold, Number: 1.5}, DirtyMaterials,
			func(t *testing.T, s Settings) { assert.Equal(t, 1.0, s.Threshold) }},
		{"threshold", Command{Op: OpThreshold, Number: 0.25}, DirtyMaterials,
			func(t *testing.T, s Settings) { assert.Equal(t, 0.25, s.Threshold) }},
		{"filter", Command{Op: OpFilter, Text: "at1"}, DirtyList,
			func(t *testing.T, s Settings) { assert.Equal(t, "at1", s.Filter) }},
		{"select", Command{Op: OpSelect, Text: "AT1G01010"}, DirtyMaterials,
			func(t *testing.T, s Settings) { assert.Equal(t, "AT1G01010", s.Entity) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			dirty, err := Apply(&s, tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.dirty, dirty)
			tt.check(t, s)
		})
	}
}

func TestApplyRejects(t *testing.T) {
	s := DefaultSettings()
	_, err := Apply(&s, Command{Op: "explode"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Apply(&s, Command{Op: OpBackground, Text: "teal"})
	assert.Error(t, err)
	assert.Equal(t, "#191919", s.Background)

	_, err = Apply(&s, Command{Op: OpThreshold, Number: math.NaN()})
	assert.Error(t, err)
}

func TestSettingsSelection(t *testing.T) {
	s := Settings{Entity: "g", HideCells: true, Threshold: 0.5}
	assert.Equal(t, material.Selection{Entity: "g", HideCells: true, Threshold: 0.5}, s.Selection())

	c := DefaultSettings().BackgroundColor()
	assert.InDelta(t, 25.0/255, c.R, 1e-9)
	assert.Equal(t, 0.0, Settings{Background: "bad"}.BackgroundColor().R)
}

func TestDirtyHas(t *testing.T) {
	d := DirtyList | DirtyMaterials
	assert.True(t, d.Has(DirtyMaterials))
	assert.False(t, d.Has(DirtyBackground))
}

func TestOrbitFrame(t *testing.T) {
	o := NewOrbit()
	o.Frame(scene.Box{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2, 2}})

	size := mgl32.Vec3{2, 2, 2}.Len()
	want := mgl32.Vec3{1, 1, 1}.Add(mgl32.Vec3{size / 2, size / 5, size / 2})
	assert.True(t, o.Eye().ApproxEqualThreshold(want, 1e-4), o.Eye())
	assert.InDelta(t, size/100, o.Near, 1e-6)
	assert.InDelta(t, size*100, o.Far, 1e-3)

	o.Zoom(1000)
	assert.InDelta(t, size*10, o.Distance, 1e-3)

	o.Reset()
	assert.True(t, o.Eye().ApproxEqualThreshold(want, 1e-4))
}

func TestOrbitAutoRotate(t *testing.T) {
	o := NewOrbit()
	o.Update(1, false)
	assert.Equal(t, float32(0), o.Yaw)
	o.Update(15, true)
	assert.InDelta(t, math.Pi, o.Yaw, 1e-5)

	o.Rotate(0, 10)
	assert.Less(t, o.Pitch, float32(math.Pi/2))
}
