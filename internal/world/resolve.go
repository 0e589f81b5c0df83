package world

import (
	"github.com/MatsPresent/Engine/internal/collision"
)

// resolve runs the narrow phase for every collider pair of a and b. a is
// always dynamic. Shapes are tested at their buffered placement; block
// corrections go to the live transforms so the next relocation picks them up.
func resolve(a, b *Entity) {
	if len(a.colliders) == 0 || len(b.colliders) == 0 {
		return
	}
	ta := a.buffer.Matrix()
	tb := b.buffer.Matrix()
	for _, ca := range a.colliders {
		for _, cb := range b.colliders {
			r := collision.Resolve(ca, cb)
			if r == collision.Ignore {
				continue
			}
			hit, mtv := collision.Collides(ca.Shape(), cb.Shape(), ta, tb)
			if !hit {
				continue
			}
			if r == collision.Overlap {
				ca.RecordOverlap(b.id)
				cb.RecordOverlap(a.id)
				continue
			}

			if b.static {
				a.live.Translate = a.live.Translate.Add(mtv)
			} else {
				half := mtv.Mult(0.5)
				a.live.Translate = a.live.Translate.Add(half)
				b.live.Translate = b.live.Translate.Sub(half)
			}
			ca.RecordHit(b.id, mtv)
			cb.RecordHit(a.id, mtv.Neg())
		}
	}
}
