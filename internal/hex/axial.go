package hex

import "fmt"

// Axial addresses a hex by two of the three cube axes.
// The third cube coordinate s is derived: s = -q - r.
type Axial struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// NewAxial returns the axial coordinate (q, r).
func NewAxial(q, r int) Axial {
	return Axial{Q: q, R: r}
}

// S returns the implicit third cube coordinate.
func (a Axial) S() int {
	return -a.Q - a.R
}

// ToCube converts to cube coordinates. The result always satisfies q+r+s = 0.
func (a Axial) ToCube() Cube {
	return Cube{Q: a.Q, R: a.R, S: a.S()}
}

// ToOffset converts back to the odd-row offset scheme.
func (a Axial) ToOffset() Offset {
	return Offset{
		Col: a.Q + (a.R-(a.R&1))/2,
		Row: a.R,
	}
}

func (a Axial) String() string {
	return fmt.Sprintf("A[%d, %d]", a.Q, a.R)
}
