package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
)

// Node is one visited scene node. The concrete type is one of MeshNode,
// CameraNode, LightNode or GroupNode.
type Node interface {
	Name() string
	World() mgl32.Mat4
	isNode()
}

type base struct {
	name  string
	world mgl32.Mat4
}

func (b base) Name() string      { return b.name }
func (b base) World() mgl32.Mat4 { return b.world }
func (base) isNode()             {}

// MeshNode draws a mesh. Its name falls back to the mesh name when the node
// is unnamed.
type MeshNode struct {
	base
	Mesh int
}

type CameraNode struct {
	base
	Camera int
}

// LightNode carries a KHR_lights_punctual light.
type LightNode struct {
	base
}

// GroupNode only parents other nodes.
type GroupNode struct {
	base
}

// Walk visits the nodes of the default scene depth first, parents before
// children, with their world transforms.
func Walk(doc *gltf.Document, fn func(Node)) {
	si := SceneIndex(doc)
	if si < 0 {
		return
	}
	for _, idx := range doc.Scenes[si].Nodes {
		walk(doc, int(idx), mgl32.Ident4(), fn, 0)
	}
}

// maxDepth stops malformed documents whose children form a cycle.
const maxDepth = 256

func walk(doc *gltf.Document, idx int, parent mgl32.Mat4, fn func(Node), depth int) {
	if idx < 0 || idx >= len(doc.Nodes) || depth > maxDepth {
		return
	}
	n := doc.Nodes[idx]
	b := base{name: n.Name, world: parent.Mul4(LocalTransform(n))}

	switch {
	case n.Mesh != nil && int(*n.Mesh) < len(doc.Meshes):
		mi := int(*n.Mesh)
		if b.name == "" {
			b.name = doc.Meshes[mi].Name
		}
		fn(MeshNode{base: b, Mesh: mi})
	case n.Camera != nil:
		fn(CameraNode{base: b, Camera: int(*n.Camera)})
	case hasLight(n):
		fn(LightNode{base: b})
	default:
		fn(GroupNode{base: b})
	}

	for _, child := range n.Children {
		walk(doc, int(child), b.world, fn, depth+1)
	}
}

func hasLight(n *gltf.Node) bool {
	_, ok := n.Extensions[lightspunctual.ExtensionName]
	return ok
}

// LocalTransform returns the node matrix, or its TRS composition when no
// matrix is set.
func LocalTransform(n *gltf.Node) mgl32.Mat4 {
	m := n.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}
