package model

import (
	"math"
)

// CircleMeshName is the label given to meshes produced by GenerateCircle.
const CircleMeshName = "circle"

// GenerateCircle builds a fan-shaped mesh approximating a circle centred on the origin.
//
// The result holds segments+1 vertices: index 0 is the origin and index i in [1, segments] lies
// at angle 2*pi*(i-1)/segments on a circle of the given radius, with z = 0. The radius is baked
// into the positions. Fewer than 3 segments produce a degenerate shape and are not rejected;
// a non-positive segment count yields only the centre vertex.
//
// Parameters:
//   - segments: the number of perimeter vertices
//   - radius: the circle radius in clip-space units
//
// Returns:
//   - Mesh: the generated mesh
func GenerateCircle(segments int, radius float32) Mesh {
	if segments < 0 {
		segments = 0
	}
	vertices := make([]Vertex, segments+1)
	vertices[0] = Vertex{0, 0, 0}
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		vertices[i+1] = Vertex{
			radius * float32(math.Cos(angle)),
			radius * float32(math.Sin(angle)),
			0,
		}
	}
	return NewMesh(CircleMeshName, vertices)
}
