package world

import (
	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/vmath"
)

// Transform is an entity's placement: scale, then rotate (radians), then
// translate.
type Transform struct {
	Translate cp.Vector
	Rotate    float64
	Scale     cp.Vector
}

// At returns an unrotated, unscaled transform placed at pos.
func At(pos cp.Vector) Transform {
	return Transform{Translate: pos, Scale: cp.Vector{X: 1, Y: 1}}
}

func (t Transform) Matrix() vmath.Affine {
	return vmath.TRS(t.Translate, t.Rotate, t.Scale)
}

// Moved returns t translated by d.
func (t Transform) Moved(d cp.Vector) Transform {
	t.Translate = t.Translate.Add(d)
	return t
}
