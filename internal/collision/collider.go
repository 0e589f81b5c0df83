package collision

import (
	"fmt"
	"slices"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/core/ecs"
)

// Layer is one of LayerCount collision categories.
type Layer uint8

const LayerCount = 8

// Response is what a collider does when it meets another collider's layer.
// The order matters: the effective response of a pair is the lesser of the
// two sides.
type Response uint8

const (
	Ignore Response = iota
	Overlap
	Block
)

func (r Response) String() string {
	switch r {
	case Ignore:
		return "ignore"
	case Overlap:
		return "overlap"
	case Block:
		return "block"
	}
	return fmt.Sprintf("response(%d)", r)
}

// ParseResponse maps the names used in scene files to a Response.
func ParseResponse(s string) (Response, error) {
	switch s {
	case "ignore", "":
		return Ignore, nil
	case "overlap":
		return Overlap, nil
	case "block":
		return Block, nil
	}
	return Ignore, fmt.Errorf("collision: unknown response %q", s)
}

// Contact is one blocking resolution against another entity.
type Contact struct {
	Other ecs.ID
	MTV   cp.Vector
}

// Collider attaches a shape to an entity. The response mask packs two bits
// per layer; a zero collider ignores everything.
//
// The record methods are called by the collision pass only. The overlap set
// it builds becomes visible through Overlaps after Publish.
type Collider struct {
	shape Shape
	layer Layer
	mask  uint16

	overlaps map[ecs.ID]struct{}
	pending  map[ecs.ID]struct{}
	hits     []Contact
}

func NewCollider(shape Shape, layer Layer) *Collider {
	c := &Collider{}
	c.SetShape(shape)
	c.SetLayer(layer)
	return c
}

func (c *Collider) Shape() Shape { return c.shape }

// SetShape replaces the shape. A nil shape becomes None.
func (c *Collider) SetShape(s Shape) {
	if s == nil {
		s = None{}
	}
	c.shape = s
}

func (c *Collider) Layer() Layer { return c.layer }

func (c *Collider) SetLayer(l Layer) {
	if l >= LayerCount {
		panic(fmt.Sprintf("collision: layer %d out of range", l))
	}
	c.layer = l
}

// Response returns how this collider reacts to colliders on layer l.
func (c *Collider) Response(l Layer) Response {
	return Response(c.mask >> (2 * uint(l)) & 0b11)
}

func (c *Collider) SetResponse(l Layer, r Response) {
	if l >= LayerCount {
		panic(fmt.Sprintf("collision: layer %d out of range", l))
	}
	if r > Block {
		r = Block
	}
	shift := 2 * uint(l)
	c.mask = c.mask&^(0b11<<shift) | uint16(r)<<shift
}

// SetResponses applies r to every layer.
func (c *Collider) SetResponses(r Response) {
	for l := Layer(0); l < LayerCount; l++ {
		c.SetResponse(l, r)
	}
}

// Resolve returns the effective response between two colliders.
func Resolve(a, b *Collider) Response {
	return min(a.Response(b.layer), b.Response(a.layer))
}

// Overlaps returns the published overlap set in ascending id order.
func (c *Collider) Overlaps() []ecs.ID {
	ids := make([]ecs.ID, 0, len(c.overlaps))
	for id := range c.overlaps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Collider) Overlapping(id ecs.ID) bool {
	_, ok := c.overlaps[id]
	return ok
}

func (c *Collider) RecordOverlap(other ecs.ID) {
	if c.pending == nil {
		c.pending = make(map[ecs.ID]struct{})
	}
	c.pending[other] = struct{}{}
}

func (c *Collider) RecordHit(other ecs.ID, mtv cp.Vector) {
	c.hits = append(c.hits, Contact{Other: other, MTV: mtv})
}

// Publish makes the overlap set recorded since the last call visible and
// returns the ids that entered and left it, plus the recorded hits.
func (c *Collider) Publish() (began, ended []ecs.ID, hits []Contact) {
	for id := range c.pending {
		if _, ok := c.overlaps[id]; !ok {
			began = append(began, id)
		}
	}
	for id := range c.overlaps {
		if _, ok := c.pending[id]; !ok {
			ended = append(ended, id)
		}
	}
	slices.Sort(began)
	slices.Sort(ended)

	c.overlaps, c.pending = c.pending, c.overlaps
	clear(c.pending)
	hits, c.hits = c.hits, nil
	return began, ended, hits
}
