package common

// BufferHandle is an opaque identifier for vertex data uploaded to the GPU.
// The zero value never refers to a live buffer.
type BufferHandle uint32

// StageHandle is an opaque identifier for a compiled but not yet linked shader stage.
// The zero value never refers to a live stage.
type StageHandle uint32

// PipelineHandle is an opaque identifier for a linked, executable shader pipeline.
// The zero value never refers to a live pipeline.
type PipelineHandle uint32

// Topology describes how consecutive vertices are assembled into primitives.
type Topology int

const (
	// TopologyTriangleFan shares vertex 0 as the apex of every triangle, paired with each
	// consecutive pair of the remaining vertices.
	TopologyTriangleFan Topology = iota

	// TopologyTriangleList treats every three vertices as an independent triangle.
	TopologyTriangleList
)

// String returns the topology name used in log output.
func (t Topology) String() string {
	switch t {
	case TopologyTriangleFan:
		return "triangle-fan"
	case TopologyTriangleList:
		return "triangle-list"
	default:
		return "unknown"
	}
}

// VertexLayout describes how raw vertex buffer bytes map onto a vertex stage input.
type VertexLayout struct {
	// Slot is the attribute location the vertex stage reads from.
	Slot uint32

	// Components is the number of float32 values per vertex.
	Components int32

	// Stride is the byte distance between consecutive vertices. Zero means tightly packed.
	Stride int32

	// Offset is the byte offset of the first component inside the buffer.
	Offset uintptr
}

// PositionLayout is the layout of a tightly packed 3-component float32 position at slot 0.
var PositionLayout = VertexLayout{Slot: 0, Components: 3, Stride: 3 * 4, Offset: 0}

// ByteStride returns the effective stride in bytes, resolving a zero stride to the packed size.
//
// Returns:
//   - int32: the distance in bytes between consecutive vertices
func (l VertexLayout) ByteStride() int32 {
	if l.Stride == 0 {
		return l.Components * 4
	}
	return l.Stride
}
