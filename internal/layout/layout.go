// Package layout places lattice cells in 3-D world space and resolves world
// positions back to cells. The grid lies in the XZ plane with Y up.
package layout

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/hexfield/internal/hex"
)

var sqrt3 = float32(math.Sqrt(3))

// Layout converts between cube coordinates and world positions.
type Layout struct {
	Size       float32 // center-to-corner radius of one cell
	BaseHeight float32 // resting Y of a cell with zero energy
	Amplitude  float32 // world units of lift per unit of energy
}

// Default returns the layout the viewer and API use.
func Default() Layout {
	return Layout{
		Size:       0.5,
		BaseHeight: 1.0,
		Amplitude:  0.25,
	}
}

// Position returns the world-space center of a cell on the ground plane.
func (l Layout) Position(a hex.Axial) mgl32.Vec3 {
	q, r := float32(a.Q), float32(a.R)
	x := l.Size * (sqrt3*q + 0.5*sqrt3*r)
	z := l.Size * (1.5 * r)
	return mgl32.Vec3{x, 0, z}
}

// Placement returns the display position of a cell lifted by its energy.
func (l Layout) Placement(c hex.Cube, energy float64) mgl32.Vec3 {
	p := l.Position(c.ToAxial())
	p[1] = l.BaseHeight + l.Amplitude*float32(energy)
	return p
}

// Pick returns the cell whose hexagon contains the world position.
// Y is ignored.
func (l Layout) Pick(world mgl32.Vec3) hex.Cube {
	x := float64(world.X() / l.Size)
	z := float64(world.Z() / l.Size)
	fq := math.Sqrt(3)/3*x - z/3
	fr := 2.0 / 3.0 * z
	return Round(fq, fr, -fq-fr)
}

// Round snaps fractional cube coordinates to the nearest cell. The component
// with the largest rounding error is recomputed from the other two so the
// result keeps q+r+s = 0.
func Round(fq, fr, fs float64) hex.Cube {
	q := math.Round(fq)
	r := math.Round(fr)
	s := math.Round(fs)

	dq := math.Abs(q - fq)
	dr := math.Abs(r - fr)
	ds := math.Abs(s - fs)

	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	default:
		s = -q - r
	}
	return hex.Cube{Q: int(q), R: int(r), S: int(s)}
}

// Corners returns the six corner points of a cell on the ground plane,
// at 60n-30 degrees around its center.
func (l Layout) Corners(a hex.Axial) [6]mgl32.Vec3 {
	center := l.Position(a)
	var corners [6]mgl32.Vec3
	for i := range corners {
		rad := mgl32.DegToRad(60*float32(i) - 30)
		corners[i] = center.Add(mgl32.Vec3{
			l.Size * float32(math.Cos(float64(rad))),
			0,
			l.Size * float32(math.Sin(float64(rad))),
		})
	}
	return corners
}

// Ripple is the idle wave a cell shows at a given hex distance from the
// origin, seconds after startup.
func Ripple(distance int, seconds float64) float32 {
	return float32(1 + 0.25*math.Sin(float64(distance)-1.5*seconds))
}
