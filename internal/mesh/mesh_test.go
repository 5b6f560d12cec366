package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewValidatesIndices(t *testing.T) {
	if _, err := New(nil, nil); err != nil {
		t.Errorf("empty mesh rejected: %v", err)
	}

	if _, err := New(nil, []Triangle{{Indices: [3]uint32{0, 1, 2}}}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("out-of-range triangle error = %v, want ErrIndexOutOfRange", err)
	}

	vertices := []Vertex{
		{Position: mgl32.Vec3{-1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 1}},
	}
	if _, err := New(vertices, []Triangle{{Indices: [3]uint32{0, 1, 2}}}); err != nil {
		t.Errorf("valid triangle rejected: %v", err)
	}
}

func TestTransformsRejectNaN(t *testing.T) {
	m := Hex(1)
	nan := float32(math.NaN())

	if err := m.Translate(mgl32.Vec3{nan, 0, 0}); !errors.Is(err, ErrInvalidTransform) {
		t.Errorf("NaN translate error = %v", err)
	}
	if err := m.Rotate(mgl32.Quat{W: nan}); !errors.Is(err, ErrInvalidTransform) {
		t.Errorf("NaN rotate error = %v", err)
	}
	if err := m.Rotate(mgl32.Quat{}); !errors.Is(err, ErrInvalidTransform) {
		t.Errorf("zero rotate error = %v", err)
	}
}

func TestHex(t *testing.T) {
	m := Hex(0.5)
	if len(m.Vertices) != 7 || len(m.Triangles) != 6 {
		t.Fatalf("Hex has %d vertices, %d triangles; want 7, 6", len(m.Vertices), len(m.Triangles))
	}
	for i, v := range m.Vertices[1:] {
		if d := v.Position.Len(); math.Abs(float64(d-0.5)) > 1e-6 {
			t.Errorf("corner %d at radius %g", i, d)
		}
	}
	// Every triangle faces +Y.
	for i, tri := range m.Triangles {
		a := m.Vertices[tri.Indices[0]].Position
		b := m.Vertices[tri.Indices[1]].Position
		c := m.Vertices[tri.Indices[2]].Position
		if n := b.Sub(a).Cross(c.Sub(a)); n.Y() <= 0 {
			t.Errorf("triangle %d winding faces %v", i, n)
		}
	}
}

func TestPrism(t *testing.T) {
	m := Prism(0.49, 0.25)
	if len(m.Vertices) != 7+7+24 {
		t.Errorf("prism vertices = %d, want 38", len(m.Vertices))
	}
	if len(m.Triangles) != 6+6+12 {
		t.Errorf("prism triangles = %d, want 24", len(m.Triangles))
	}

	if _, err := New(m.Vertices, m.Triangles); err != nil {
		t.Errorf("merged prism has bad indices: %v", err)
	}

	var minY, maxY float32 = 1, -1
	for _, v := range m.Vertices {
		minY = min(minY, v.Position.Y())
		maxY = max(maxY, v.Position.Y())
	}
	if math.Abs(float64(minY)) > 1e-6 || math.Abs(float64(maxY-0.25)) > 1e-6 {
		t.Errorf("prism spans y [%g, %g], want [0, 0.25]", minY, maxY)
	}

	// The bottom cap was flipped to face down.
	if n := m.Vertices[7].Normal; n.Y() > -0.99 {
		t.Errorf("bottom cap normal = %v, want -Y", n)
	}
}

func TestMergeOffsetsIndices(t *testing.T) {
	a := Hex(1)
	b := Hex(1)
	a.Merge(b)
	last := a.Triangles[len(a.Triangles)-1]
	for _, idx := range last.Indices {
		if idx < 7 {
			t.Errorf("merged triangle index %d not offset", idx)
		}
	}

	positions, indices := a.Flatten()
	if len(positions) != 3*14 || len(indices) != 3*12 {
		t.Errorf("Flatten lengths = %d, %d", len(positions), len(indices))
	}
}
