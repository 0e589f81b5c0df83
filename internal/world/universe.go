package world

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/event"
	"github.com/MatsPresent/Engine/internal/core/pool"
	"github.com/MatsPresent/Engine/internal/core/system"
)

type removal struct {
	stage system.Stage
	typ   ecs.TypeID
	id    ecs.ID
}

// Universe owns one gridspace and the six stage lists. A fixed tick runs
//
//	physics -> postphysics (+ relocation) -> input (+ collision) -> behaviour
//
// and a frame runs prerender -> render. Relocation and collision run on the
// world pool; the tick goroutine joins each before the next stage that
// needs its result.
type Universe struct {
	id    ecs.ID
	world *World
	grid  *Gridspace
	lists [system.StageCount]*system.List
	log   *zap.Logger

	members []*Entity

	updateInterval time.Duration
	updateBehind   time.Duration
	renderInterval time.Duration
	renderTimeout  time.Duration
	updateEnabled  bool
	renderEnabled  bool

	// readonly bars transform writes; readBuffer routes transform reads to
	// the buffered snapshot.
	readonly   atomic.Bool
	readBuffer atomic.Bool

	busy    bool // background tasks may be running
	ticking bool

	deferred []*Entity // spawned while busy, not yet filed in the grid
	doomed   []*Entity
	removals []removal
}

func newUniverse(w *World, grid *Gridspace) *Universe {
	u := &Universe{
		world:         w,
		grid:          grid,
		updateEnabled: true,
		renderEnabled: true,
	}
	for s := system.Stage(0); s < system.StageCount; s++ {
		u.lists[s] = system.NewList(s)
	}
	return u
}

func (u *Universe) ID() ecs.ID { return u.id }

func (u *Universe) World() *World { return u.world }

func (u *Universe) Gridspace() *Gridspace { return u.grid }

// Len returns the number of live entities, including queued ones.
func (u *Universe) Len() int { return len(u.members) }

// Entities returns a snapshot of the live entities.
func (u *Universe) Entities() []*Entity {
	return append([]*Entity(nil), u.members...)
}

// Stage returns the component list of a stage.
func (u *Universe) Stage(s system.Stage) *system.List { return u.lists[s] }

func (u *Universe) TransformReadonly() bool { return u.readonly.Load() }

func (u *Universe) TransformReadBuffer() bool { return u.readBuffer.Load() }

// SetUpdateInterval sets the fixed tick length. Zero ticks once per Update
// call with the frame delta; negative values are clamped to zero.
func (u *Universe) SetUpdateInterval(d time.Duration) {
	u.updateInterval = max(d, 0)
	u.updateBehind = min(u.updateBehind, u.updateInterval)
}

func (u *Universe) UpdateInterval() time.Duration { return u.updateInterval }

func (u *Universe) SetUpdateEnabled(enabled bool) { u.updateEnabled = enabled }

// SetRenderInterval sets the minimum time between full render passes.
// Negative values are clamped to zero.
func (u *Universe) SetRenderInterval(d time.Duration) {
	u.renderInterval = max(d, 0)
	u.renderTimeout = min(u.renderTimeout, u.renderInterval)
}

func (u *Universe) RenderInterval() time.Duration { return u.renderInterval }

func (u *Universe) SetRenderEnabled(enabled bool) { u.renderEnabled = enabled }

// SpawnEntity creates an entity at t. Static entities never move. An entity
// spawned while background tasks run is filed in the grid once they join.
func (u *Universe) SpawnEntity(t Transform, static bool) *Entity {
	e := &Entity{
		universe:   u,
		static:     static,
		live:       t,
		buffer:     t,
		cell:       -1,
		components: make(map[ecs.TypeID]*attachment),
	}
	e.id = u.world.entities.Insert(e)
	e.member = len(u.members)
	u.members = append(u.members, e)
	if u.busy {
		u.deferred = append(u.deferred, e)
	} else {
		u.grid.Add(e)
	}
	return e
}

// EntitiesInRange queries the gridspace around origin. The cell lists are
// rewritten by relocation, so the query fails while it runs; during the
// collision pass they are only read and the query sees buffered positions.
func (u *Universe) EntitiesInRange(origin cp.Vector, radius float64) ([]*Entity, error) {
	if u.busy && !u.readBuffer.Load() {
		return nil, fmt.Errorf("query entities in range: %w", ErrUniverseBusy)
	}
	if math.IsNaN(origin.X) || math.IsNaN(origin.Y) || math.IsInf(origin.X, 0) || math.IsInf(origin.Y, 0) || !(radius >= 0) {
		return nil, fmt.Errorf("query %v within %g: %w", origin, radius, ErrInvalidRange)
	}
	return u.grid.EntitiesInRange(origin, radius), nil
}

// Destroy queues e for removal. Queued entities are removed at the end of
// the current tick, or by Flush.
func (u *Universe) Destroy(e *Entity) error {
	if e.universe != u {
		return fmt.Errorf("destroy entity %d: %w", e.id, ErrForeignEntity)
	}
	if e.destroying {
		return nil
	}
	e.destroying = true
	u.doomed = append(u.doomed, e)
	return nil
}

// Flush applies queued entity and component removals. It cannot run inside
// a tick.
func (u *Universe) Flush() error {
	if u.ticking {
		return ErrUniverseBusy
	}
	u.flush()
	return nil
}

func (u *Universe) removeComponent(s system.Stage, t ecs.TypeID, id ecs.ID) {
	if u.ticking {
		u.removals = append(u.removals, removal{stage: s, typ: t, id: id})
		return
	}
	u.lists[s].Remove(t, id)
}

func (u *Universe) flush() {
	for _, r := range u.removals {
		u.lists[r.stage].Remove(r.typ, r.id)
	}
	u.removals = u.removals[:0]

	for _, e := range u.doomed {
		for t, at := range e.components {
			for _, id := range at.ids {
				u.lists[at.stage].Remove(t, id)
			}
		}
		clear(e.components)
		u.grid.Remove(e)

		last := len(u.members) - 1
		moved := u.members[last]
		u.members[e.member] = moved
		moved.member = e.member
		u.members[last] = nil
		u.members = u.members[:last]

		if err := u.world.entities.Erase(e.id); err != nil {
			u.log.Warn("erase destroyed entity", zap.Uint32("entity", uint32(e.id)), zap.Error(err))
		}
	}
	u.doomed = u.doomed[:0]
}

// Update advances the fixed tick accumulator by dt and runs every tick that
// became due.
func (u *Universe) Update(dt time.Duration) error {
	if !u.updateEnabled {
		return nil
	}
	if u.updateInterval <= 0 {
		return u.tick(dt)
	}
	u.updateBehind += dt
	for u.updateBehind >= u.updateInterval {
		u.updateBehind -= u.updateInterval
		if err := u.tick(u.updateInterval); err != nil {
			return err
		}
	}
	return nil
}

func (u *Universe) tick(dt time.Duration) error {
	u.ticking = true
	defer func() {
		u.ticking = false
		u.flush()
	}()

	if err := u.lists[system.StagePhysics].Update(dt); err != nil {
		return err
	}

	u.busy = true
	u.readonly.Store(true)
	reloc := pool.Enqueue(u.world.pool, func() (struct{}, error) {
		u.grid.UpdateCells()
		return struct{}{}, nil
	})
	stageErr := u.lists[system.StagePostPhysics].Update(dt)
	if _, err := reloc.Get(); err != nil {
		u.log.Error("relocation failed", zap.Error(err))
		stageErr = errors.Join(stageErr, fmt.Errorf("relocation: %w", err))
	}
	if stageErr != nil {
		u.release()
		return stageErr
	}

	u.readBuffer.Store(true)
	coll := pool.Enqueue(u.world.pool, func() (struct{}, error) {
		u.grid.UpdateCollision()
		return struct{}{}, nil
	})
	stageErr = u.lists[system.StageInput].Update(dt)
	if _, err := coll.Get(); err != nil {
		u.log.Error("collision failed", zap.Error(err))
		stageErr = errors.Join(stageErr, fmt.Errorf("collision: %w", err))
	}
	u.release()
	u.publish()
	if stageErr != nil {
		return stageErr
	}

	return u.lists[system.StageBehaviour].Update(dt)
}

// release ends the background window and files entities spawned during it.
func (u *Universe) release() {
	u.readBuffer.Store(false)
	u.readonly.Store(false)
	u.busy = false
	for _, e := range u.deferred {
		u.grid.Add(e)
	}
	u.deferred = u.deferred[:0]
}

// publish swaps in the overlap sets built by the collision pass and emits
// the resulting events.
func (u *Universe) publish() {
	bus := u.world.bus
	for _, e := range u.members {
		for i, c := range e.colliders {
			began, ended, hits := c.Publish()
			for _, other := range began {
				event.Emit(bus, event.BeginOverlap{Universe: u.id, Entity: e.id, Collider: i, Other: other})
			}
			for _, other := range ended {
				event.Emit(bus, event.EndOverlap{Universe: u.id, Entity: e.id, Collider: i, Other: other})
			}
			for _, h := range hits {
				event.Emit(bus, event.Hit{Universe: u.id, Entity: e.id, Collider: i, Other: h.Other, MTV: h.MTV})
			}
		}
	}
}

// Render runs a full frame (prerender then render) once the render interval
// has elapsed, and only the draw calls otherwise.
func (u *Universe) Render(dt time.Duration) error {
	if !u.renderEnabled {
		return nil
	}
	u.renderTimeout -= dt
	if u.renderTimeout >= 0 {
		u.lists[system.StageRender].Render()
		return nil
	}
	u.renderTimeout = max(u.renderTimeout+u.renderInterval, 0)

	u.readonly.Store(true)
	err := u.lists[system.StagePreRender].Update(dt)
	u.readonly.Store(false)
	if err != nil {
		return err
	}

	render := u.lists[system.StageRender]
	if err := render.Update(dt); err != nil {
		return err
	}
	render.Render()
	return nil
}
