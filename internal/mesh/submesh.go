// Package mesh builds triangle geometry for hex prisms. Output is plain
// vertex and index data for whatever renderer consumes it.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrIndexOutOfRange  = errors.New("triangle index out of range")
	ErrInvalidTransform = errors.New("invalid transform")
)

// Vertex is one mesh vertex.
type Vertex struct {
	Position mgl32.Vec3 `json:"position"`
	Normal   mgl32.Vec3 `json:"normal"`
	UV       mgl32.Vec2 `json:"uv"`
}

// Triangle indexes three vertices, counter-clockwise when seen from the front.
type Triangle struct {
	Indices [3]uint32 `json:"indices"`
}

// SubMesh is an indexed triangle list.
type SubMesh struct {
	Vertices  []Vertex   `json:"vertices"`
	Triangles []Triangle `json:"triangles"`
}

// New validates that every index refers to a vertex.
func New(vertices []Vertex, triangles []Triangle) (*SubMesh, error) {
	for i, t := range triangles {
		for _, idx := range t.Indices {
			if int(idx) >= len(vertices) {
				return nil, fmt.Errorf("triangle %d index %d of %d vertices: %w", i, idx, len(vertices), ErrIndexOutOfRange)
			}
		}
	}
	return &SubMesh{Vertices: vertices, Triangles: triangles}, nil
}

// Translate moves every vertex by t.
func (m *SubMesh) Translate(t mgl32.Vec3) error {
	if hasNaN(t[:]) {
		return fmt.Errorf("translate %v: %w", t, ErrInvalidTransform)
	}
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Add(t)
	}
	return nil
}

// Rotate applies q to positions and normals. q is normalized first;
// NaN or near-zero quaternions are rejected.
func (m *SubMesh) Rotate(q mgl32.Quat) error {
	if hasNaN([]float32{q.W, q.V[0], q.V[1], q.V[2]}) || q.Dot(q) < mgl32.Epsilon {
		return fmt.Errorf("rotate %v: %w", q, ErrInvalidTransform)
	}
	q = q.Normalize()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = q.Rotate(v.Position)
		v.Normal = q.Rotate(v.Normal)
	}
	return nil
}

// Merge appends other's geometry, offsetting its indices, and returns m.
func (m *SubMesh) Merge(other *SubMesh) *SubMesh {
	offset := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, t := range other.Triangles {
		m.Triangles = append(m.Triangles, Triangle{Indices: [3]uint32{
			t.Indices[0] + offset,
			t.Indices[1] + offset,
			t.Indices[2] + offset,
		}})
	}
	return m
}

// Flatten returns interleaved positions and a flat index buffer.
func (m *SubMesh) Flatten() (positions []float32, indices []uint32) {
	positions = make([]float32, 0, 3*len(m.Vertices))
	for _, v := range m.Vertices {
		positions = append(positions, v.Position[:]...)
	}
	indices = make([]uint32, 0, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		indices = append(indices, t.Indices[:]...)
	}
	return positions, indices
}

func hasNaN(vs []float32) bool {
	for _, v := range vs {
		if math.IsNaN(float64(v)) {
			return true
		}
	}
	return false
}
