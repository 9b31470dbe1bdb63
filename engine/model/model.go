package model

import (
	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single 3-component float32 position.
type Vertex = mgl32.Vec3

// VertexSize is the size in bytes of one tightly packed Vertex.
const VertexSize = 3 * 4

// Mesh is an immutable, ordered sequence of vertices intended to be drawn as a triangle fan.
// Vertex 0 is the shared apex of every triangle in the fan.
type Mesh struct {
	name     string
	segments int
	vertices []Vertex
}

// NewMesh creates a Mesh from the given vertices. The slice is copied so later changes by the
// caller do not leak into the mesh.
//
// Parameters:
//   - name: the mesh identifier used for GPU object labels
//   - vertices: the vertex positions, apex first
//
// Returns:
//   - Mesh: the new mesh
func NewMesh(name string, vertices []Vertex) Mesh {
	cp := make([]Vertex, len(vertices))
	copy(cp, vertices)
	segments := len(cp) - 1
	if segments < 0 {
		segments = 0
	}
	return Mesh{
		name:     name,
		segments: segments,
		vertices: cp,
	}
}

// Name returns the mesh identifier.
func (m Mesh) Name() string {
	return m.name
}

// Segments returns the number of perimeter vertices following the apex.
func (m Mesh) Segments() int {
	return m.segments
}

// VertexCount returns the total number of vertices, apex included.
func (m Mesh) VertexCount() int {
	return len(m.vertices)
}

// Vertex returns the vertex at index i.
//
// Parameters:
//   - i: the vertex index, 0 being the apex
//
// Returns:
//   - Vertex: the position at that index
func (m Mesh) Vertex(i int) Vertex {
	return m.vertices[i]
}

// Vertices returns a copy of every vertex in draw order.
//
// Returns:
//   - []Vertex: the vertex positions, apex first
func (m Mesh) Vertices() []Vertex {
	cp := make([]Vertex, len(m.vertices))
	copy(cp, m.vertices)
	return cp
}

// Bytes returns the vertex positions as tightly packed float32 triples in host byte order,
// ready for upload.
// The result is a fresh slice owned by the caller.
//
// Returns:
//   - []byte: len(vertices) * VertexSize bytes of position data
func (m Mesh) Bytes() []byte {
	return common.SliceToBytes(m.Vertices())
}

// FanIndices expands the first count vertices of the fan into an equivalent triangle list.
// Each triangle is (0, i, i+1) for i in [1, count-2]. Fewer than 3 vertices yield no triangles.
// Used by backends that have no native fan topology.
//
// Parameters:
//   - count: the number of fan vertices to expand, clamped to VertexCount
//
// Returns:
//   - []uint32: 3*(count-2) indices, or nil when count < 3
func (m Mesh) FanIndices(count int) []uint32 {
	if count > len(m.vertices) {
		count = len(m.vertices)
	}
	if count < 3 {
		return nil
	}
	indices := make([]uint32, 0, 3*(count-2))
	for i := 1; i < count-1; i++ {
		indices = append(indices, 0, uint32(i), uint32(i+1))
	}
	return indices
}
