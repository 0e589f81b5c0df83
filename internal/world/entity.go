package world

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/collision"
	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/system"
)

// attachment lists the component ids of one type attached to an entity.
type attachment struct {
	stage system.Stage
	ids   []ecs.ID
}

// Entity is a placed object in one universe. Its live transform is written
// by the tick goroutine and by the collision pass; buffer is the snapshot
// taken by the last relocation pass and is what background readers see.
type Entity struct {
	id       ecs.ID
	universe *Universe
	static   bool

	live     Transform
	buffer   Transform
	velocity cp.Vector

	cell   int // gridspace cell, -1 while not inserted
	member int // index in the universe's member list

	colliders  []*collision.Collider
	components map[ecs.TypeID]*attachment

	destroying bool
}

func (e *Entity) ID() ecs.ID { return e.id }

func (e *Entity) Universe() *Universe { return e.universe }

func (e *Entity) UniverseID() ecs.ID { return e.universe.id }

func (e *Entity) Static() bool { return e.static }

// Cell returns the gridspace cell the entity was last filed under.
func (e *Entity) Cell() int { return e.cell }

// Transform returns the buffered snapshot while the universe reads from
// the buffer, the live transform otherwise.
func (e *Entity) Transform() Transform {
	if e.universe.readBuffer.Load() {
		return e.buffer
	}
	return e.live
}

// writable reports whether the live transform may be touched. It must be
// checked before live is read, since the collision pass writes it while
// the universe is readonly.
func (e *Entity) writable() error {
	if e.static {
		return ErrStaticEntity
	}
	if e.universe.readonly.Load() {
		return ErrTransformLocked
	}
	return nil
}

// SetTransform overwrites the live transform.
func (e *Entity) SetTransform(t Transform) error {
	if err := e.writable(); err != nil {
		return fmt.Errorf("set transform of entity %d: %w", e.id, err)
	}
	e.live = t
	return nil
}

// Translate moves the live transform by d under the same rules as
// SetTransform.
func (e *Entity) Translate(d cp.Vector) error {
	if err := e.writable(); err != nil {
		return fmt.Errorf("translate entity %d: %w", e.id, err)
	}
	e.live = e.live.Moved(d)
	return nil
}

func (e *Entity) Velocity() cp.Vector { return e.velocity }

func (e *Entity) SetVelocity(v cp.Vector) { e.velocity = v }

// Colliders returns the entity's colliders in attach order.
func (e *Entity) Colliders() []*collision.Collider { return e.colliders }

// AddCollider attaches a new collider. Colliders are read by the collision
// pass, so they cannot be attached while it may run.
func (e *Entity) AddCollider(shape collision.Shape, layer collision.Layer) (*collision.Collider, error) {
	if e.universe.busy {
		return nil, fmt.Errorf("add collider to entity %d: %w", e.id, ErrUniverseBusy)
	}
	c := collision.NewCollider(shape, layer)
	e.colliders = append(e.colliders, c)
	return c, nil
}

func (e *Entity) Destroyed() bool { return e.destroying }
