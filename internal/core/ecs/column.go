package ecs

import (
	"fmt"
	"time"
)

// Component constrains PT to a pointer to T that implements Updater.
type Component[T any] interface {
	*T
	Updater
}

// Column is a typed, contiguous component store for one component type in
// one update stage. Removal swaps the last instance into the hole, so add,
// remove and iteration stay amortized O(1).
//
// Pointers returned by Add and Get stay valid until the next Add or Remove
// on the same column.
type Column[T any, PT Component[T]] struct {
	typ     TypeID
	values  []T
	ids     []ID  // dense index -> component id
	index   []int // component id -> dense index, -1 when free
	freeIDs []ID
	renders bool
}

func NewColumn[T any, PT Component[T]]() *Column[T, PT] {
	var zero T
	_, renders := any(PT(&zero)).(Renderer)
	return &Column[T, PT]{
		typ:     TypeOf[T](),
		values:  make([]T, 0, 16),
		ids:     make([]ID, 0, 16),
		renders: renders,
	}
}

func (c *Column[T, PT]) Type() TypeID { return c.typ }

func (c *Column[T, PT]) Len() int { return len(c.values) }

// Add stores v, binds it to the owning entity and universe and returns the
// new component id together with a pointer to the stored instance.
func (c *Column[T, PT]) Add(v T, entity, universe ID) (ID, PT) {
	var id ID
	if n := len(c.freeIDs); n > 0 {
		id = c.freeIDs[n-1]
		c.freeIDs = c.freeIDs[:n-1]
	} else {
		id = ID(len(c.index))
		c.index = append(c.index, -1)
	}
	c.index[id] = len(c.values)
	c.values = append(c.values, v)
	c.ids = append(c.ids, id)

	p := PT(&c.values[len(c.values)-1])
	b := p.base()
	b.id = id
	b.entity = entity
	b.universe = universe
	return id, p
}

func (c *Column[T, PT]) Has(id ID) bool {
	return int(id) < len(c.index) && c.index[id] >= 0
}

// Get returns the instance stored under id.
func (c *Column[T, PT]) Get(id ID) (PT, bool) {
	if !c.Has(id) {
		return nil, false
	}
	return PT(&c.values[c.index[id]]), true
}

// Remove deletes the instance stored under id and recycles the id.
func (c *Column[T, PT]) Remove(id ID) bool {
	if !c.Has(id) {
		return false
	}
	idx := c.index[id]
	last := len(c.values) - 1
	if idx != last {
		c.values[idx] = c.values[last]
		c.ids[idx] = c.ids[last]
		c.index[c.ids[idx]] = idx
	}
	var zero T
	c.values[last] = zero
	c.values = c.values[:last]
	c.ids = c.ids[:last]
	c.index[id] = -1
	c.freeIDs = append(c.freeIDs, id)
	return true
}

// Each visits every live instance in dense order.
func (c *Column[T, PT]) Each(fn func(PT)) {
	for i := range c.values {
		fn(PT(&c.values[i]))
	}
}

// Update calls Update on every live instance and stops at the first error.
func (c *Column[T, PT]) Update(dt time.Duration) error {
	for i := 0; i < len(c.values); i++ {
		p := PT(&c.values[i])
		if err := p.Update(dt); err != nil {
			return fmt.Errorf("%s %d: %w", c.typ, p.ID(), err)
		}
	}
	return nil
}

// Render calls Render on every live instance when the type draws.
func (c *Column[T, PT]) Render() {
	if !c.renders {
		return
	}
	for i := 0; i < len(c.values); i++ {
		any(PT(&c.values[i])).(Renderer).Render()
	}
}
