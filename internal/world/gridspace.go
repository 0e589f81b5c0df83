package world

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// Gridspace implements a uniform cell grid over entity positions. Cell
// coordinates wrap per axis, so every position maps to some cell and distant
// positions may share one; callers filter by real distance.
//
// Add and Remove run on the tick goroutine. UpdateCells and UpdateCollision
// run on a pool worker while the universe holds transforms readonly.
type Gridspace struct {
	counts [2]int
	sizes  [2]float64
	cells  []cell
}

type cell struct {
	static  []*Entity
	dynamic []*Entity
}

func NewGridspace(countX, countY int, sizeX, sizeY float64) (*Gridspace, error) {
	if countX < 1 || countY < 1 || !(sizeX > 0) || !(sizeY > 0) {
		return nil, fmt.Errorf("%dx%d cells of %gx%g: %w", countX, countY, sizeX, sizeY, ErrInvalidGrid)
	}
	return &Gridspace{
		counts: [2]int{countX, countY},
		sizes:  [2]float64{sizeX, sizeY},
		cells:  make([]cell, countX*countY),
	}, nil
}

func (g *Gridspace) CellCounts() (int, int)        { return g.counts[0], g.counts[1] }
func (g *Gridspace) CellSizes() (float64, float64) { return g.sizes[0], g.sizes[1] }

// coord is floor(v / size) mod count, wrapped into [0, count). Non-finite
// coordinates map to 0.
func (g *Gridspace) coord(v float64, axis int) int {
	return wrap(math.Floor(v/g.sizes[axis]), g.counts[axis])
}

func wrap(c float64, n int) int {
	c = math.Mod(c, float64(n))
	if math.IsNaN(c) {
		return 0
	}
	if c < 0 {
		c += float64(n)
	}
	return int(c)
}

// CellOf returns the cell index for a world position.
func (g *Gridspace) CellOf(pos cp.Vector) int {
	return g.coord(pos.Y, 1)*g.counts[0] + g.coord(pos.X, 0)
}

// Add files e under the cell of its live position.
func (g *Gridspace) Add(e *Entity) {
	e.buffer = e.live
	e.cell = g.CellOf(e.live.Translate)
	c := &g.cells[e.cell]
	if e.static {
		c.static = append(c.static, e)
	} else {
		c.dynamic = append(c.dynamic, e)
	}
}

// Remove takes e out of its recorded cell.
func (g *Gridspace) Remove(e *Entity) {
	if e.cell < 0 {
		return
	}
	c := &g.cells[e.cell]
	if e.static {
		c.static = without(c.static, e)
	} else {
		c.dynamic = without(c.dynamic, e)
	}
	e.cell = -1
}

func without(list []*Entity, e *Entity) []*Entity {
	for i, o := range list {
		if o == e {
			return swapRemove(list, i)
		}
	}
	return list
}

func swapRemove(list []*Entity, i int) []*Entity {
	last := len(list) - 1
	list[i] = list[last]
	list[last] = nil
	return list[:last]
}

// Len returns the number of filed entities.
func (g *Gridspace) Len() int {
	n := 0
	for i := range g.cells {
		n += len(g.cells[i].static) + len(g.cells[i].dynamic)
	}
	return n
}

// UpdateCells snapshots every dynamic entity's live transform into its
// buffer and moves it to the cell of its new position.
func (g *Gridspace) UpdateCells() {
	for i := range g.cells {
		c := &g.cells[i]
		for j := 0; j < len(c.dynamic); {
			e := c.dynamic[j]
			e.buffer = e.live
			idx := g.CellOf(e.live.Translate)
			if idx == i {
				j++
				continue
			}
			c.dynamic = swapRemove(c.dynamic, j)
			e.cell = idx
			g.cells[idx].dynamic = append(g.cells[idx].dynamic, e)
		}
	}
}

// span returns the distinct wrapped cell coordinates covering v-r..v+r.
// An extent that is not finite covers the whole axis.
func (g *Gridspace) span(v, r float64, axis int, buf []int) []int {
	n := g.counts[axis]
	lo := math.Floor((v - r) / g.sizes[axis])
	hi := math.Floor((v + r) / g.sizes[axis])
	if !(hi-lo+1 < float64(n)) {
		for c := 0; c < n; c++ {
			buf = append(buf, c)
		}
		return buf
	}
	start := wrap(lo, n)
	for i := 0; i <= int(hi-lo); i++ {
		buf = append(buf, (start+i)%n)
	}
	return buf
}

// neighbourhood holds the scratch slices reused by around.
type neighbourhood struct {
	xs, ys, cells []int
}

// around returns the distinct cells within r of origin.
func (g *Gridspace) around(origin cp.Vector, r float64, nb *neighbourhood) []int {
	nb.xs = g.span(origin.X, r, 0, nb.xs[:0])
	nb.ys = g.span(origin.Y, r, 1, nb.ys[:0])
	nb.cells = nb.cells[:0]
	for _, y := range nb.ys {
		for _, x := range nb.xs {
			nb.cells = append(nb.cells, y*g.counts[0]+x)
		}
	}
	return nb.cells
}

// scanRadius is one cell, regardless of collider extents. Geometry larger
// than a cell can be missed by the broad phase.
func (g *Gridspace) scanRadius() float64 {
	return math.Max(g.sizes[0], g.sizes[1])
}

// UpdateCollision runs the broad phase over buffered transforms and
// resolves every candidate pair. Each dynamic pair is visited once, from
// the entity with the higher id.
func (g *Gridspace) UpdateCollision() {
	r := g.scanRadius()
	r2 := r * r
	var nb neighbourhood
	for i := range g.cells {
		for _, e := range g.cells[i].dynamic {
			pos := e.buffer.Translate
			for _, ci := range g.around(pos, r, &nb) {
				c := &g.cells[ci]
				for _, o := range c.static {
					if o.buffer.Translate.Sub(pos).LengthSq() <= r2 {
						resolve(e, o)
					}
				}
				for _, o := range c.dynamic {
					if o.id < e.id && o.buffer.Translate.Sub(pos).LengthSq() <= r2 {
						resolve(e, o)
					}
				}
			}
		}
	}
}

// EntitiesInRange returns every filed entity whose position is within radius
// of origin, static and dynamic alike.
func (g *Gridspace) EntitiesInRange(origin cp.Vector, radius float64) []*Entity {
	var nb neighbourhood
	var result []*Entity
	r2 := radius * radius
	for _, ci := range g.around(origin, radius, &nb) {
		c := &g.cells[ci]
		for _, list := range [2][]*Entity{c.static, c.dynamic} {
			for _, e := range list {
				if e.Transform().Translate.Sub(origin).LengthSq() <= r2 {
					result = append(result, e)
				}
			}
		}
	}
	return result
}
