package main

import (
	"maps"
	"slices"
)

// gridLines returns an XZ grid centred on the origin as interleaved
// position/normal line vertices.
func gridLines(size float32, divisions int) []float32 {
	half := size / 2
	step := size / float32(divisions)
	out := make([]float32, 0, (divisions+1)*4*6)
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		out = append(out,
			-half, 0, k, 0, 1, 0,
			half, 0, k, 0, 1, 0,
			k, 0, -half, 0, 1, 0,
			k, 0, half, 0, 1, 0,
		)
	}
	return out
}

// axisLines returns the X, Y and Z axes of the given length, in that order.
func axisLines(length float32) []float32 {
	return []float32{
		0, 0, 0, 0, 1, 0,
		length, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 1, 0,
		0, length, 0, 0, 1, 0,
		0, 0, 0, 0, 1, 0,
		0, 0, length, 0, 1, 0,
	}
}

func sortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}
