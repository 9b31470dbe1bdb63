package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo pairs a wgpu vertex format with its byte size and float component count.
type vertexFormatInfo struct {
	format     wgpu.VertexFormat
	size       uint64
	components int32
}

// parsedField is a single member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct is a WGSL struct block with its members in declaration order.
type parsedStruct struct {
	name   string
	fields []parsedField
}
