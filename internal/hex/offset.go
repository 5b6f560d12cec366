// Package hex provides the three coordinate systems for a hex lattice:
// Offset (odd rows shoved right), Axial (q, r), and Cube (q, r, s with q+r+s = 0).
// All conversions between them are exact integer arithmetic.
package hex

import "fmt"

// Offset addresses a hex by rectangular column and row.
// Odd rows are shoved half a cell to the right.
type Offset struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// NewOffset returns the offset coordinate (col, row).
func NewOffset(col, row int) Offset {
	return Offset{Col: col, Row: row}
}

// ToAxial converts an offset coordinate to axial.
// row&1 isolates the parity of the row, which also holds for negative rows.
func (o Offset) ToAxial() Axial {
	return Axial{
		Q: o.Col - (o.Row-(o.Row&1))/2,
		R: o.Row,
	}
}

// ToCube converts an offset coordinate to cube, through axial.
func (o Offset) ToCube() Cube {
	return o.ToAxial().ToCube()
}

func (o Offset) String() string {
	return fmt.Sprintf("O[%d, %d]", o.Col, o.Row)
}
