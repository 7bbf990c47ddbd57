package mg

import "gonum.org/v1/gonum/floats"

// A Vector is a level-local coefficient vector. Its length is the number of
// degrees of freedom on the level it belongs to.
type Vector []float64

// NewVector creates a zero vector with n entries.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Zero sets every entry to zero.
func (v Vector) Zero() {
	clear(v)
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// Norm returns the 2-norm of the vector.
func (v Vector) Norm() float64 {
	return floats.Norm(v, 2)
}
