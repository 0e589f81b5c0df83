// Package vmath is the small linear-algebra layer the engine needs on top of
// cp.Vector: a 2D affine matrix and the translate/rotate/scale compose.
package vmath

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Affine is a 2x3 row-major affine matrix
//
//	| M00 M01 M02 |
//	| M10 M11 M12 |
//
// with an implied last row of 0 0 1.
type Affine struct {
	M00, M01, M02 float64
	M10, M11, M12 float64
}

func Identity() Affine {
	return Affine{M00: 1, M11: 1}
}

func Translation(v cp.Vector) Affine {
	return Affine{M00: 1, M02: v.X, M11: 1, M12: v.Y}
}

// Rotation is a counter-clockwise rotation by angle radians.
func Rotation(angle float64) Affine {
	s, c := math.Sincos(angle)
	return Affine{M00: c, M01: -s, M10: s, M11: c}
}

func Scaling(v cp.Vector) Affine {
	return Affine{M00: v.X, M11: v.Y}
}

// TRS composes translation * rotation * scale.
func TRS(translate cp.Vector, angle float64, scale cp.Vector) Affine {
	s, c := math.Sincos(angle)
	return Affine{
		M00: scale.X * c, M01: -scale.Y * s, M02: translate.X,
		M10: scale.X * s, M11: scale.Y * c, M12: translate.Y,
	}
}

// Mul returns m * o, so o is applied first.
func (m Affine) Mul(o Affine) Affine {
	return Affine{
		M00: m.M00*o.M00 + m.M01*o.M10,
		M01: m.M00*o.M01 + m.M01*o.M11,
		M02: m.M00*o.M02 + m.M01*o.M12 + m.M02,
		M10: m.M10*o.M00 + m.M11*o.M10,
		M11: m.M10*o.M01 + m.M11*o.M11,
		M12: m.M10*o.M02 + m.M11*o.M12 + m.M12,
	}
}

func (m Affine) Det() float64 {
	return m.M00*m.M11 - m.M01*m.M10
}

// Inverse returns the inverse matrix. A singular matrix yields false.
func (m Affine) Inverse() (Affine, bool) {
	d := m.Det()
	if d == 0 {
		return Affine{}, false
	}
	inv := 1 / d
	r := Affine{
		M00: m.M11 * inv, M01: -m.M01 * inv,
		M10: -m.M10 * inv, M11: m.M00 * inv,
	}
	r.M02 = -(r.M00*m.M02 + r.M01*m.M12)
	r.M12 = -(r.M10*m.M02 + r.M11*m.M12)
	return r, true
}

// Point transforms a position.
func (m Affine) Point(v cp.Vector) cp.Vector {
	return cp.Vector{
		X: m.M00*v.X + m.M01*v.Y + m.M02,
		Y: m.M10*v.X + m.M11*v.Y + m.M12,
	}
}

// Vect transforms a direction, ignoring translation.
func (m Affine) Vect(v cp.Vector) cp.Vector {
	return cp.Vector{
		X: m.M00*v.X + m.M01*v.Y,
		Y: m.M10*v.X + m.M11*v.Y,
	}
}

func (m Affine) Origin() cp.Vector {
	return cp.Vector{X: m.M02, Y: m.M12}
}

func (m Affine) Near(o Affine, eps float64) bool {
	return math.Abs(m.M00-o.M00) <= eps && math.Abs(m.M01-o.M01) <= eps &&
		math.Abs(m.M02-o.M02) <= eps && math.Abs(m.M10-o.M10) <= eps &&
		math.Abs(m.M11-o.M11) <= eps && math.Abs(m.M12-o.M12) <= eps
}
