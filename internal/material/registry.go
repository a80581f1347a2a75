// Package material owns the per-name materials of a loaded model and binds
// dataset records onto them.
package material

import "github.com/go-gl/mathgl/mgl32"

// Material is the renderable surface state shared by every mesh with the
// same normalized name.
type Material struct {
	Key     string
	Color   mgl32.Vec3
	Visible bool
}

// New returns a white, visible material.
func New(key string) *Material {
	return &Material{Key: key, Color: mgl32.Vec3{1, 1, 1}, Visible: true}
}

// Key returns the registry key for a raw glTF mesh or node name.
func Key(name string) string {
	return NormalizeMeshName(SanitizeNodeName(name))
}

// Registry owns materials by key. Meshes refer to them by key only.
type Registry struct {
	materials map[string]*Material
	keys      []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{materials: make(map[string]*Material)}
}

// Acquire returns the material for the mesh called name, creating it on
// first use.
func (r *Registry) Acquire(name string) (string, *Material) {
	key := Key(name)
	m, ok := r.materials[key]
	if !ok {
		m = New(key)
		r.materials[key] = m
		r.keys = append(r.keys, key)
	}
	return key, m
}

// Get returns the material stored under key.
func (r *Registry) Get(key string) (*Material, bool) {
	m, ok := r.materials[key]
	return m, ok
}

// Keys returns the keys in creation order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Registry) Len() int { return len(r.keys) }

// Reset drops every material. Called before a new model is registered.
func (r *Registry) Reset() {
	r.materials = make(map[string]*Material)
	r.keys = nil
}
