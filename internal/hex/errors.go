package hex

import (
	"errors"
	"fmt"
)

// ErrSumNotZero is matched by errors.Is for any cube built from components
// that do not sum to zero.
var ErrSumNotZero = errors.New("cube coordinate components do not sum to zero")

// CoordinateErrorKind classifies a CoordinateError.
type CoordinateErrorKind uint8

const (
	SumNotZero CoordinateErrorKind = iota // q + r + s != 0
)

// CoordinateError reports an invalid raw coordinate.
type CoordinateError struct {
	Kind    CoordinateErrorKind
	Q, R, S int
}

func (e *CoordinateError) Error() string {
	switch e.Kind {
	case SumNotZero:
		return fmt.Sprintf("cube (%d, %d, %d): sum is %d, want 0", e.Q, e.R, e.S, e.Q+e.R+e.S)
	default:
		return fmt.Sprintf("cube (%d, %d, %d): invalid coordinate", e.Q, e.R, e.S)
	}
}

// Is lets errors.Is(err, ErrSumNotZero) match a SumNotZero CoordinateError.
func (e *CoordinateError) Is(target error) bool {
	return e.Kind == SumNotZero && target == ErrSumNotZero
}
