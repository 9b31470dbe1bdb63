package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-circle/common"
)

const epsilon = 1e-6

func TestGenerateCircleVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		segments int
		want     int
	}{
		{"default", 100, 101},
		{"square", 4, 5},
		{"triangle", 3, 4},
		{"degenerate two", 2, 3},
		{"zero", 0, 1},
		{"negative", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := GenerateCircle(tt.segments, 0.5)
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
			if got := m.Vertex(0); got != (Vertex{0, 0, 0}) {
				t.Errorf("Vertex(0) = %v, want origin", got)
			}
		})
	}
}

func TestGenerateCirclePerimeter(t *testing.T) {
	const segments = 100
	const radius = float32(0.5)
	m := GenerateCircle(segments, radius)

	for i := 1; i <= segments; i++ {
		v := m.Vertex(i)
		if v.Z() != 0 {
			t.Fatalf("vertex %d: z = %v, want 0", i, v.Z())
		}
		if got := v.Len(); !common.ApproxEqual(got, radius, epsilon) {
			t.Fatalf("vertex %d: |v| = %v, want %v", i, got, radius)
		}
		wantAngle := 2 * math.Pi * float64(i-1) / segments
		gotAngle := math.Atan2(float64(v.Y()), float64(v.X()))
		if gotAngle < 0 {
			gotAngle += 2 * math.Pi
		}
		if math.Abs(gotAngle-wantAngle) > 1e-5 && math.Abs(gotAngle-wantAngle-2*math.Pi) > 1e-5 {
			t.Fatalf("vertex %d: angle = %v, want %v", i, gotAngle, wantAngle)
		}
	}
}

func TestGenerateCircleSquare(t *testing.T) {
	m := GenerateCircle(4, 1.0)
	want := []Vertex{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{-1, 0, 0},
		{0, -1, 0},
	}

	got := m.Vertices()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].ApproxEqualThreshold(want[i], epsilon) {
			t.Errorf("vertex %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerateCircleDeterministic(t *testing.T) {
	a := GenerateCircle(100, 0.5)
	b := GenerateCircle(100, 0.5)
	av, bv := a.Vertices(), b.Vertices()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("vertex %d differs between runs: %v vs %v", i, av[i], bv[i])
		}
	}
}

func TestMeshBytes(t *testing.T) {
	m := GenerateCircle(100, 0.5)
	b := m.Bytes()
	if len(b) != m.VertexCount()*VertexSize {
		t.Fatalf("len(Bytes()) = %d, want %d", len(b), m.VertexCount()*VertexSize)
	}
	// apex is twelve zero bytes
	for i := 0; i < VertexSize; i++ {
		if b[i] != 0 {
			t.Fatalf("apex byte %d = %d, want 0", i, b[i])
		}
	}
}

func TestMeshIsolatedFromCaller(t *testing.T) {
	src := []Vertex{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m := NewMesh("tri", src)
	src[1] = Vertex{9, 9, 9}
	if m.Vertex(1) != (Vertex{1, 0, 0}) {
		t.Errorf("mesh changed after caller mutated source slice: %v", m.Vertex(1))
	}

	out := m.Vertices()
	out[2] = Vertex{9, 9, 9}
	if m.Vertex(2) != (Vertex{0, 1, 0}) {
		t.Errorf("mesh changed after caller mutated Vertices() result: %v", m.Vertex(2))
	}
	if m.Segments() != 2 {
		t.Errorf("Segments() = %d, want 2", m.Segments())
	}
}

func TestFanIndices(t *testing.T) {
	m := GenerateCircle(4, 1.0)

	tests := []struct {
		name  string
		count int
		want  []uint32
	}{
		{"full fan", 5, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}},
		{"segments only", 4, []uint32{0, 1, 2, 0, 2, 3}},
		{"single triangle", 3, []uint32{0, 1, 2}},
		{"too few", 2, nil},
		{"clamped", 50, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.FanIndices(tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("FanIndices(%d) = %v, want %v", tt.count, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("FanIndices(%d) = %v, want %v", tt.count, got, tt.want)
				}
			}
		})
	}
}

func TestBytesHostByteOrder(t *testing.T) {
	m := GenerateCircle(4, 1)
	data := m.Bytes()

	for i, v := range m.Vertices() {
		for c := 0; c < 3; c++ {
			off := i*VertexSize + c*4
			got := math.Float32frombits(binary.NativeEndian.Uint32(data[off : off+4]))
			if got != v[c] {
				t.Errorf("vertex %d component %d = %v, want %v", i, c, got, v[c])
			}
		}
	}
}
