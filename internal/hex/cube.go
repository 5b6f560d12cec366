package hex

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Cube addresses a hex by three redundant axes. Invariant: Q + R + S == 0.
// Only NewCube validates; every other constructor in this package preserves
// the invariant by construction.
type Cube struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// NewCube builds a cube coordinate from raw components.
// Returns a *CoordinateError matching ErrSumNotZero when q+r+s != 0.
func NewCube(q, r, s int) (Cube, error) {
	if q+r+s != 0 {
		return Cube{}, &CoordinateError{Kind: SumNotZero, Q: q, R: r, S: s}
	}
	return Cube{Q: q, R: r, S: s}, nil
}

// Origin returns the cube at (0, 0, 0).
func Origin() Cube {
	return Cube{}
}

// ToAxial drops the redundant s axis.
func (c Cube) ToAxial() Axial {
	return Axial{Q: c.Q, R: c.R}
}

// ToOffset converts to the odd-row offset scheme, through axial.
func (c Cube) ToOffset() Offset {
	return c.ToAxial().ToOffset()
}

// Add returns the component-wise sum. Two zero-sum cubes add to a zero-sum cube.
func (c Cube) Add(o Cube) Cube {
	return Cube{Q: c.Q + o.Q, R: c.R + o.R, S: c.S + o.S}
}

// Sub returns the component-wise difference.
func (c Cube) Sub(o Cube) Cube {
	return Cube{Q: c.Q - o.Q, R: c.R - o.R, S: c.S - o.S}
}

// Scale multiplies every component by k.
func (c Cube) Scale(k int) Cube {
	return Cube{Q: c.Q * k, R: c.R * k, S: c.S * k}
}

// Abs returns the component-wise absolute value. The result is a vector
// magnitude, not a lattice cell, and does not keep the zero-sum invariant.
func (c Cube) Abs() Cube {
	return Cube{Q: abs(c.Q), R: abs(c.R), S: abs(c.S)}
}

// MaxComponent returns the largest of the three components.
func (c Cube) MaxComponent() int {
	return max(c.Q, c.R, c.S)
}

// DistanceTo returns the number of hex steps between c and o:
// max(|Δq|, |Δr|, |Δs|).
func (c Cube) DistanceTo(o Cube) int {
	return c.Sub(o).Abs().MaxComponent()
}

// Distance is DistanceTo in function form.
func Distance(a, b Cube) int {
	return a.DistanceTo(b)
}

func (c Cube) String() string {
	return fmt.Sprintf("C[%d, %d, %d]", c.Q, c.R, c.S)
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
