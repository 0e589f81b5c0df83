// Package collision holds the 2D collision shapes, the narrow-phase tests
// between them and the per-entity Collider.
package collision

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/vmath"
)

// Kind tags the active shape variant. The order is the dispatch rank: a test
// between two kinds is implemented on the higher-ranked one.
type Kind uint8

const (
	KindNone Kind = iota
	KindPoint
	KindLine
	KindRectangle
	KindEllipse
	KindConvex
)

var kindNames = [...]string{"none", "point", "line", "rectangle", "ellipse", "convex"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Shape is the closed set of collision shapes. Coordinates are local to the
// owning entity's transform.
type Shape interface {
	Kind() Kind
	shape()
}

type None struct{}

type Point struct {
	P cp.Vector
}

type Line struct {
	P0, P1 cp.Vector
}

// Rectangle spans Lower..Upper in its own frame, rotated by an angle around
// the entity origin.
type Rectangle struct {
	Lower, Upper cp.Vector
	cos, sin     float64
}

func NewRectangle(lower, upper cp.Vector, angle float64) Rectangle {
	s, c := math.Sincos(angle)
	return Rectangle{Lower: lower, Upper: upper, cos: c, sin: s}
}

// Ellipse is centred on Centre with Radii along its rotated axes.
type Ellipse struct {
	Centre, Radii cp.Vector
	cos, sin      float64
}

func NewEllipse(centre, radii cp.Vector, angle float64) Ellipse {
	s, c := math.Sincos(angle)
	return Ellipse{Centre: centre, Radii: radii, cos: c, sin: s}
}

// Convex is a convex polygon. It never collides with anything yet.
type Convex struct {
	vertices []cp.Vector
}

// NewConvex copies vertices into a new polygon.
func NewConvex(vertices ...cp.Vector) Convex {
	return Convex{vertices: append([]cp.Vector(nil), vertices...)}
}

func (x Convex) Len() int              { return len(x.vertices) }
func (x Convex) At(i int) cp.Vector    { return x.vertices[i] }
func (x Convex) Vertices() []cp.Vector { return append([]cp.Vector(nil), x.vertices...) }

func (None) Kind() Kind      { return KindNone }
func (Point) Kind() Kind     { return KindPoint }
func (Line) Kind() Kind      { return KindLine }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Ellipse) Kind() Kind   { return KindEllipse }
func (Convex) Kind() Kind    { return KindConvex }

func (None) shape()      {}
func (Point) shape()     {}
func (Line) shape()      {}
func (Rectangle) shape() {}
func (Ellipse) shape()   {}
func (Convex) shape()    {}

func (r Rectangle) Angle() float64 { return math.Atan2(r.sin, r.cos) }
func (e Ellipse) Angle() float64   { return math.Atan2(e.sin, e.cos) }

// rotated returns m with the rectangle's own rotation applied first.
func (r Rectangle) rotated(m vmath.Affine) vmath.Affine {
	return m.Mul(vmath.Affine{M00: r.cos, M01: -r.sin, M10: r.sin, M11: r.cos})
}

func (r Rectangle) corners() [4]cp.Vector {
	return [4]cp.Vector{
		r.Lower,
		{X: r.Upper.X, Y: r.Lower.Y},
		r.Upper,
		{X: r.Lower.X, Y: r.Upper.Y},
	}
}

// unit returns m with the ellipse's frame applied first, mapping the unit
// circle onto the ellipse.
func (e Ellipse) unit(m vmath.Affine) vmath.Affine {
	return m.Mul(vmath.Affine{
		M00: e.Radii.X * e.cos, M01: -e.Radii.Y * e.sin, M02: e.Centre.X,
		M10: e.Radii.X * e.sin, M11: e.Radii.Y * e.cos, M12: e.Centre.Y,
	})
}
