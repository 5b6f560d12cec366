package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var up = mgl32.Vec3{0, 1, 0}

// hexPoint is corner n of a hexagon of the given size, at 60n-30 degrees.
func hexPoint(n int, size float32) mgl32.Vec3 {
	rad := float64(mgl32.DegToRad(60*float32(n) - 30))
	return mgl32.Vec3{float32(math.Cos(rad)), 0, float32(math.Sin(rad))}.Mul(size)
}

// sideNormal is the outward normal of the side starting at corner n.
func sideNormal(n int) mgl32.Vec3 {
	rad := float64(mgl32.DegToRad(60 * float32(n)))
	return mgl32.Vec3{float32(math.Cos(rad)), 0, float32(math.Sin(rad))}
}

// Hex builds a flat hexagon facing +Y: a center vertex and six corners
// fanned into six triangles.
func Hex(size float32) *SubMesh {
	vertices := make([]Vertex, 0, 7)
	vertices = append(vertices, Vertex{Normal: up})
	for n := 0; n < 6; n++ {
		vertices = append(vertices, Vertex{Position: hexPoint(n, size), Normal: up})
	}

	triangles := make([]Triangle, 0, 6)
	for n := uint32(1); n <= 6; n++ {
		next := n%6 + 1
		triangles = append(triangles, Triangle{Indices: [3]uint32{0, next, n}})
	}

	m, _ := New(vertices, triangles) // indices are in range by construction
	return m
}

// PrismSides builds the six rectangular walls of a prism, two triangles each.
func PrismSides(size, height float32) *SubMesh {
	vertices := make([]Vertex, 0, 24)
	triangles := make([]Triangle, 0, 12)
	lift := up.Mul(height)

	for n := 0; n < 6; n++ {
		a := hexPoint(n, size)
		b := hexPoint(n+1, size)
		normal := sideNormal(n)
		base := uint32(len(vertices))

		vertices = append(vertices,
			Vertex{Position: a, Normal: normal},
			Vertex{Position: a.Add(lift), Normal: normal},
			Vertex{Position: b, Normal: normal},
			Vertex{Position: b.Add(lift), Normal: normal},
		)
		triangles = append(triangles,
			Triangle{Indices: [3]uint32{base, base + 3, base + 2}},
			Triangle{Indices: [3]uint32{base, base + 1, base + 3}},
		)
	}

	m, _ := New(vertices, triangles)
	return m
}

// Prism builds a closed hex prism standing on y = 0 with its top at height.
func Prism(size, height float32) *SubMesh {
	top := Hex(size)
	_ = top.Translate(up.Mul(height))

	bottom := Hex(size)
	_ = bottom.Rotate(mgl32.QuatRotate(math.Pi, mgl32.Vec3{1, 0, 0}))

	return top.Merge(bottom).Merge(PrismSides(size, height))
}
