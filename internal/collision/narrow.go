package collision

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/vmath"
)

const (
	// squared distance small enough to be considered zero
	minSqrMag = 1.0 / 65536

	bisectSteps = 8
)

// Collides reports whether a, placed by ta, overlaps b, placed by tb. The
// returned vector is the displacement that separates a from b and is zero
// when they do not collide.
//
// Each pair of kinds is tested on the higher-ranked kind; the opposite order
// swaps the arguments and negates the result.
func Collides(a, b Shape, ta, tb vmath.Affine) (bool, cp.Vector) {
	if a == nil || b == nil {
		return false, cp.Vector{}
	}
	if a.Kind() < b.Kind() {
		hit, mtv := collides(b, a, tb, ta)
		if !hit {
			return false, cp.Vector{}
		}
		return true, mtv.Neg()
	}
	return collides(a, b, ta, tb)
}

func collides(a, b Shape, ta, tb vmath.Affine) (bool, cp.Vector) {
	switch a := a.(type) {
	case Line:
		if b, ok := b.(Line); ok {
			return lineLine(a, b, ta, tb)
		}
	case Rectangle:
		switch b := b.(type) {
		case Point:
			return rectPoint(a, b, ta, tb)
		case Line:
			return rectLine(a, b, ta, tb)
		case Rectangle:
			return rectRect(a, b, ta, tb)
		}
	case Ellipse:
		switch b := b.(type) {
		case Point:
			return ellipsePoint(a, b, ta, tb)
		case Line:
			return ellipseLine(a, b, ta, tb)
		case Rectangle:
			return ellipseRect(a, b, ta, tb)
		case Ellipse:
			return ellipseEllipse(a, b, ta, tb)
		}
	}
	// none, point-point, line-point and anything convex
	return false, cp.Vector{}
}

// overlap returns the signed amount to add to interval a to separate it from
// interval b, and whether the two intersect. Touching intervals do not.
func overlap(amin, amax, bmin, bmax float64) (float64, bool) {
	oab := amax - bmin
	oba := bmax - amin
	o := oba
	if oab < oba {
		o = -oab
	}
	return o, oab > 0 && oba > 0
}

// smallest returns the index of the overlap with the least magnitude,
// preferring the lowest index on ties.
func smallest(o []float64) int {
	best := 0
	for i := 1; i < len(o); i++ {
		if math.Abs(o[i]) < math.Abs(o[best]) {
			best = i
		}
	}
	return best
}

func minmax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// normal returns the unit normal of the segment p0-p1.
func normal(p0, p1 cp.Vector) (cp.Vector, bool) {
	d := p1.Sub(p0)
	l := d.Length()
	if l == 0 {
		return cp.Vector{}, false
	}
	return d.Perp().Mult(1 / l), true
}

// bounds returns the axis-aligned bounds of the points after m.
func bounds(m vmath.Affine, pts [4]cp.Vector) (lo, hi cp.Vector) {
	lo = cp.Vector{X: math.Inf(1), Y: math.Inf(1)}
	hi = cp.Vector{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range pts {
		v := m.Point(p)
		lo.X, hi.X = math.Min(lo.X, v.X), math.Max(hi.X, v.X)
		lo.Y, hi.Y = math.Min(lo.Y, v.Y), math.Max(hi.Y, v.Y)
	}
	return lo, hi
}

// closestOnSegment returns the point of p0-p1 nearest to the origin.
func closestOnSegment(p0, p1 cp.Vector) cp.Vector {
	d := p1.Sub(p0)
	l2 := d.LengthSq()
	if l2 == 0 {
		return p0
	}
	t := math.Max(0, math.Min(1, -p0.Dot(d)/l2))
	return p0.Add(d.Mult(t))
}

// containsOrigin reports whether the origin lies inside or on the convex
// quad p.
func containsOrigin(p [4]cp.Vector) bool {
	sign := 0
	for i := range p {
		a, b := p[i], p[(i+1)%4]
		c := b.Sub(a).Cross(a.Neg())
		s := 0
		switch {
		case c > 0:
			s = 1
		case c < 0:
			s = -1
		}
		if s == 0 {
			continue
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// escape resolves a collision found in an ellipse's unit space. c is the
// closest point of the other shape to the centre; enclosed means the centre
// itself lies inside the other shape.
func escape(unit vmath.Affine, c cp.Vector, enclosed bool) (bool, cp.Vector) {
	sq := c.LengthSq()
	if !enclosed && sq >= 1 {
		return false, cp.Vector{}
	}
	dir := cp.Vector{X: 1}
	if sq > 0 {
		dir = c.Mult(1 / math.Sqrt(sq))
	}
	if enclosed {
		return true, unit.Vect(c.Add(dir))
	}
	return true, unit.Vect(c.Sub(dir))
}

func lineLine(a, b Line, ta, tb vmath.Affine) (bool, cp.Vector) {
	a0, a1 := ta.Point(a.P0), ta.Point(a.P1)
	b0, b1 := tb.Point(b.P0), tb.Point(b.P1)
	aAxis, okA := normal(a0, a1)
	bAxis, okB := normal(b0, b1)
	if !okA || !okB {
		return false, cp.Vector{}
	}

	ap := aAxis.Dot(a0)
	lo, hi := minmax(aAxis.Dot(b0), aAxis.Dot(b1))
	oa, hit := overlap(ap, ap, lo, hi)
	if !hit {
		return false, cp.Vector{}
	}

	bp := bAxis.Dot(b0)
	lo, hi = minmax(bAxis.Dot(a0), bAxis.Dot(a1))
	ob, hit := overlap(lo, hi, bp, bp)
	if !hit {
		return false, cp.Vector{}
	}

	if math.Abs(oa) <= math.Abs(ob) {
		return true, aAxis.Mult(oa)
	}
	return true, bAxis.Mult(ob)
}

func rectPoint(r Rectangle, pt Point, ta, tb vmath.Affine) (bool, cp.Vector) {
	tr := r.rotated(ta)
	inv, ok := tr.Inverse()
	if !ok {
		return false, cp.Vector{}
	}
	p := inv.Mul(tb).Point(pt.P)

	ox, hx := overlap(r.Lower.X, r.Upper.X, p.X, p.X)
	oy, hy := overlap(r.Lower.Y, r.Upper.Y, p.Y, p.Y)
	if !hx || !hy {
		return false, cp.Vector{}
	}
	if math.Abs(ox) <= math.Abs(oy) {
		return true, tr.Vect(cp.Vector{X: ox})
	}
	return true, tr.Vect(cp.Vector{Y: oy})
}

func rectLine(r Rectangle, l Line, ta, tb vmath.Affine) (bool, cp.Vector) {
	w0, w1 := tb.Point(l.P0), tb.Point(l.P1)
	axis, ok := normal(w0, w1)
	if !ok {
		return rectPoint(r, Point{P: l.P0}, ta, tb)
	}

	tr := r.rotated(ta)
	inv, ok := tr.Inverse()
	if !ok {
		return false, cp.Vector{}
	}
	m := inv.Mul(tb)
	b0, b1 := m.Point(l.P0), m.Point(l.P1)

	var o [3]float64
	var hx, hy, hn bool
	lo, hi := minmax(b0.X, b1.X)
	o[0], hx = overlap(r.Lower.X, r.Upper.X, lo, hi)
	lo, hi = minmax(b0.Y, b1.Y)
	o[1], hy = overlap(r.Lower.Y, r.Upper.Y, lo, hi)
	if !hx || !hy {
		return false, cp.Vector{}
	}

	// the line projects onto its own normal as a single value
	bp := axis.Dot(w0)
	amin, amax := math.Inf(1), math.Inf(-1)
	for _, c := range r.corners() {
		p := axis.Dot(tr.Point(c))
		amin, amax = math.Min(amin, p), math.Max(amax, p)
	}
	o[2], hn = overlap(amin, amax, bp, bp)
	if !hn {
		return false, cp.Vector{}
	}

	switch smallest(o[:]) {
	case 0:
		return true, tr.Vect(cp.Vector{X: o[0]})
	case 1:
		return true, tr.Vect(cp.Vector{Y: o[1]})
	default:
		return true, axis.Mult(o[2])
	}
}

func rectRect(a, b Rectangle, ta, tb vmath.Affine) (bool, cp.Vector) {
	t0r := a.rotated(ta)
	t1r := b.rotated(tb)
	inv0, ok0 := t0r.Inverse()
	inv1, ok1 := t1r.Inverse()
	if !ok0 || !ok1 {
		return false, cp.Vector{}
	}

	// o[0..1]: a in b's frame, o[2..3]: b in a's frame
	var o [4]float64
	var hx, hy bool
	lo, hi := bounds(inv1.Mul(t0r), a.corners())
	o[0], hx = overlap(lo.X, hi.X, b.Lower.X, b.Upper.X)
	o[1], hy = overlap(lo.Y, hi.Y, b.Lower.Y, b.Upper.Y)
	if !hx || !hy {
		return false, cp.Vector{}
	}

	lo, hi = bounds(inv0.Mul(t1r), b.corners())
	o[2], hx = overlap(a.Lower.X, a.Upper.X, lo.X, hi.X)
	o[3], hy = overlap(a.Lower.Y, a.Upper.Y, lo.Y, hi.Y)
	if !hx || !hy {
		return false, cp.Vector{}
	}

	i := smallest(o[:])
	frame := t1r
	if i >= 2 {
		frame = t0r
	}
	v := cp.Vector{X: o[i]}
	if i%2 == 1 {
		v = cp.Vector{Y: o[i]}
	}
	return true, frame.Vect(v)
}

func ellipsePoint(e Ellipse, pt Point, ta, tb vmath.Affine) (bool, cp.Vector) {
	u := e.unit(ta)
	inv, ok := u.Inverse()
	if !ok {
		return false, cp.Vector{}
	}
	return escape(u, inv.Mul(tb).Point(pt.P), false)
}

func ellipseLine(e Ellipse, l Line, ta, tb vmath.Affine) (bool, cp.Vector) {
	u := e.unit(ta)
	inv, ok := u.Inverse()
	if !ok {
		return false, cp.Vector{}
	}
	m := inv.Mul(tb)
	return escape(u, closestOnSegment(m.Point(l.P0), m.Point(l.P1)), false)
}

func ellipseRect(e Ellipse, r Rectangle, ta, tb vmath.Affine) (bool, cp.Vector) {
	u := e.unit(ta)
	inv, ok := u.Inverse()
	if !ok {
		return false, cp.Vector{}
	}
	m := inv.Mul(r.rotated(tb))
	var p [4]cp.Vector
	for i, c := range r.corners() {
		p[i] = m.Point(c)
	}

	best := math.Inf(1)
	var closest cp.Vector
	for i := range p {
		c := closestOnSegment(p[i], p[(i+1)%4])
		if sq := c.LengthSq(); sq < best {
			best, closest = sq, c
		}
	}

	if best < minSqrMag {
		// an edge runs through the centre: push away from the rectangle
		centre := p[0].Add(p[1]).Add(p[2]).Add(p[3]).Mult(0.25)
		dir := cp.Vector{X: -1}
		if l := centre.Length(); l > 0 {
			dir = centre.Mult(-1 / l)
		}
		return true, u.Vect(dir)
	}
	return escape(u, closest, containsOrigin(p))
}

// ellipseEllipse estimates the separation from both sides and combines
// them, so swapping the arguments negates the result exactly.
func ellipseEllipse(a, b Ellipse, ta, tb vmath.Affine) (bool, cp.Vector) {
	hitA, fromA := ellipseToward(a, b, ta, tb)
	hitB, fromB := ellipseToward(b, a, tb, ta)
	fromB = fromB.Neg()
	switch {
	case hitA && hitB:
		return true, fromA.Add(fromB).Mult(0.5)
	case hitA:
		return true, fromA
	case hitB:
		return true, fromB
	}
	return false, cp.Vector{}
}

// ellipseToward measures the separation of a from b in a's unit space.
func ellipseToward(a, b Ellipse, ta, tb vmath.Affine) (bool, cp.Vector) {
	t0 := a.unit(ta)
	t1 := b.unit(tb)
	inv0, ok0 := t0.Inverse()
	inv1, ok1 := t1.Inverse()
	if !ok0 || !ok1 {
		return false, cp.Vector{}
	}

	// a's centre inside b
	enclosed := inv1.Mul(t0).Origin().LengthSq() < 1

	// bisect b's boundary, in a's unit space, for the point nearest a's centre
	tB := inv0.Mul(t1)
	at := func(angle float64) cp.Vector {
		s, c := math.Sincos(angle)
		return tB.Point(cp.Vector{X: c, Y: s})
	}
	angle, delta := 0.0, 2*math.Pi/3
	p := at(angle)
	sq := p.LengthSq()
	for i := 0; i < bisectSteps; i++ {
		cand := [3]cp.Vector{at(angle - delta), p, at(angle + delta)}
		k := 1
		sqs := [3]float64{cand[0].LengthSq(), sq, cand[2].LengthSq()}
		for j := 0; j < 3; j++ {
			if sqs[j] < sqs[k] || (sqs[j] == sqs[k] && j < k) {
				k = j
			}
		}
		p, sq = cand[k], sqs[k]
		angle += float64(k-1) * delta
		delta /= 2
	}
	return escape(t0, p, enclosed)
}
