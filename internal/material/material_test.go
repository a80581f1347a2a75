package material

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gltf-data-viewer/internal/dataset"
)

type mapSource map[string]map[string]float64

func (m mapSource) Values(entity string) (map[string]float64, bool) {
	v, ok := m[entity]
	return v, ok
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		"Leaf_Blade001":  "Leaf Blade",
		"Leaf Blade":     "Leaf Blade",
		"Leaf Blade.001": "Leaf Blade",
		"Leaf_Blade":     "Leaf Blade",
		"Root":           "Root",
		"Root12":         "Root12",
		"Stem_2024":      "Stem 2",
		"a/b:c[d]":       "abcd",
	}
	for in, want := range tests {
		assert.Equal(t, want, Key(in), in)
	}
}

func TestRegistrySharesByName(t *testing.T) {
	reg := NewRegistry()
	k1, m1 := reg.Acquire("Leaf_Blade001")
	k2, m2 := reg.Acquire("Leaf Blade")
	assert.Equal(t, "Leaf Blade", k1)
	assert.Equal(t, k1, k2)
	assert.Same(t, m1, m2)
	assert.Equal(t, 1, reg.Len())

	reg.Acquire("Root")
	assert.Equal(t, []string{"Leaf Blade", "Root"}, reg.Keys())

	reg.Reset()
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.Get("Root")
	assert.False(t, ok)
}

func TestBindColorsAndVisibility(t *testing.T) {
	reg := NewRegistry()
	_, leaf := reg.Acquire("Leaf")

	res := Bind(mapSource{"Leaf": {"Leaf": 0.2}}, reg, Selection{Entity: "Leaf"})
	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, []string{"Leaf"}, res.Applied)
	assert.Equal(t, float32(1), leaf.Color[0])
	assert.InDelta(t, 0.86, leaf.Color[1], 1e-6)
	assert.InDelta(t, 0.86, leaf.Color[2], 1e-6)
	assert.True(t, leaf.Visible)
}

func TestBindThreshold(t *testing.T) {
	reg := NewRegistry()
	_, low := reg.Acquire("Low")
	_, high := reg.Acquire("High")
	src := mapSource{"gene": {"Low": 0.3, "High": 0.7}}

	Bind(src, reg, Selection{Entity: "gene", HideCells: true, Threshold: 0.5})
	assert.False(t, low.Visible)
	assert.True(t, high.Visible)

	Bind(src, reg, Selection{Entity: "gene", HideCells: false, Threshold: 0.5})
	assert.True(t, low.Visible)
}

func TestBindIdempotent(t *testing.T) {
	reg := NewRegistry()
	_, m := reg.Acquire("Leaf")
	src := mapSource{"gene": {"Leaf": 0.4}}
	sel := Selection{Entity: "gene", HideCells: true, Threshold: 0.1}

	Bind(src, reg, sel)
	first := *m
	Bind(src, reg, sel)
	assert.Equal(t, first, *m)
}

func TestBindUnknownEntityLeavesMaterials(t *testing.T) {
	reg := NewRegistry()
	_, m := reg.Acquire("Leaf")
	m.Color = mgl32.Vec3{1, 0.5, 0.5}
	m.Visible = false

	res := Bind(mapSource{"gene": {"Leaf": 1}}, reg, Selection{Entity: "other"})
	assert.Equal(t, StatusUnknownEntity, res.Status)
	assert.Empty(t, res.Applied)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0.5}, m.Color)
	assert.False(t, m.Visible)

	res = Bind(nil, reg, Selection{Entity: "gene"})
	assert.Equal(t, StatusNoData, res.Status)
}

func TestBindReportsUnmatched(t *testing.T) {
	reg := NewRegistry()
	reg.Acquire("Leaf")
	res := Bind(mapSource{"gene": {"Leaf": 1, "Petal": 0.5, "Anther": 0}}, reg, Selection{Entity: "gene"})
	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, []string{"Leaf"}, res.Applied)
	assert.Equal(t, []string{"Anther", "Petal"}, res.Unmatched)
}

func TestBindSharedMeshNames(t *testing.T) {
	ds, _, err := dataset.Parse(strings.NewReader("gene,Leaf Blade,Root\ng1,1,0\n"))
	require.NoError(t, err)

	reg := NewRegistry()
	_, a := reg.Acquire("Leaf_Blade001")
	_, b := reg.Acquire("Leaf Blade")
	Bind(ds, reg, Selection{Entity: "g1"})
	assert.Same(t, a, b)
	assert.InDelta(t, 0.3, a.Color[1], 1e-6)
}
