package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Box is an axis aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

func emptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{Min: mgl32.Vec3{inf, inf, inf}, Max: mgl32.Vec3{-inf, -inf, -inf}}
}

// Empty reports whether nothing was added to b.
func (b Box) Empty() bool { return b.Min[0] > b.Max[0] }

// Center returns the middle of b.
func (b Box) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

// Size returns the length of the diagonal.
func (b Box) Size() float32 { return b.Max.Sub(b.Min).Len() }

func (b *Box) extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Bounds returns the world space box around every mesh of the default
// scene, using the POSITION accessor min/max of each primitive. ok is false
// when no primitive declares them.
func Bounds(doc *gltf.Document) (box Box, ok bool) {
	box = emptyBox()
	Walk(doc, func(n Node) {
		mn, isMesh := n.(MeshNode)
		if !isMesh {
			return
		}
		for _, prim := range doc.Meshes[mn.Mesh].Primitives {
			idx, has := prim.Attributes[gltf.POSITION]
			if !has || int(idx) >= len(doc.Accessors) {
				continue
			}
			acr := doc.Accessors[idx]
			if len(acr.Min) < 3 || len(acr.Max) < 3 {
				continue
			}
			world := mn.World()
			for _, c := range corners(acr.Min, acr.Max) {
				box.extend(mgl32.TransformCoordinate(c, world))
			}
		}
	})
	return box, !box.Empty()
}

func corners(lo, hi []float64) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		for axis := 0; axis < 3; axis++ {
			v := lo[axis]
			if i&(1<<axis) != 0 {
				v = hi[axis]
			}
			out[i][axis] = float32(v)
		}
	}
	return out
}
