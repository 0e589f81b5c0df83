package world

import (
	"errors"
	"testing"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/collision"
	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/system"
)

var errBoom = errors.New("boom")

func vec(x, y float64) cp.Vector { return cp.Vector{X: x, Y: y} }

func newTestWorld(t *testing.T) (*World, *Universe) {
	t.Helper()
	w := New(2, nil)
	t.Cleanup(w.Close)
	u, err := w.CreateUniverse(GridConfig{CellCountX: 16, CellCountY: 16, CellSizeX: 64, CellSizeY: 64})
	if err != nil {
		t.Fatalf("create universe: %v", err)
	}
	return w, u
}

// box spawns an entity at pos with a 10x10 rectangle that blocks layer 0.
func box(t *testing.T, u *Universe, pos cp.Vector, static bool) (*Entity, *collision.Collider) {
	t.Helper()
	e := u.SpawnEntity(At(pos), static)
	c, err := e.AddCollider(collision.NewRectangle(vec(0, 0), vec(10, 10), 0), 0)
	if err != nil {
		t.Fatalf("add collider: %v", err)
	}
	c.SetResponse(0, collision.Block)
	return e, c
}

// mover translates its entity every physics tick.
type mover struct {
	ecs.Base
	EntityRef
	step cp.Vector
}

func (mover) Stage() system.Stage { return system.StagePhysics }

func (m *mover) Update(time.Duration) error { return m.Entity().Translate(m.step) }

// observer records the universe flags and the outcome of a transform write in
// whatever stage it runs in.
type observer struct {
	readonly, readBuffer bool
	writeErr             error
	runs                 int
}

func (p *observer) observe(e *Entity) {
	u := e.Universe()
	p.readonly = u.TransformReadonly()
	p.readBuffer = u.TransformReadBuffer()
	p.writeErr = e.SetTransform(e.Transform())
	p.runs++
}

type physicsObserver struct {
	ecs.Base
	EntityRef
	*observer
}

func (physicsObserver) Stage() system.Stage          { return system.StagePhysics }
func (p *physicsObserver) Update(time.Duration) error { p.observe(p.Entity()); return nil }

type postPhysicsObserver struct {
	ecs.Base
	EntityRef
	*observer
}

func (postPhysicsObserver) Stage() system.Stage          { return system.StagePostPhysics }
func (p *postPhysicsObserver) Update(time.Duration) error { p.observe(p.Entity()); return nil }

type inputObserver struct {
	ecs.Base
	EntityRef
	*observer
}

func (inputObserver) Stage() system.Stage          { return system.StageInput }
func (p *inputObserver) Update(time.Duration) error { p.observe(p.Entity()); return nil }

type behaviourObserver struct {
	ecs.Base
	EntityRef
	*observer
}

func (behaviourObserver) Stage() system.Stage          { return system.StageBehaviour }
func (p *behaviourObserver) Update(time.Duration) error { p.observe(p.Entity()); return nil }

type preRenderObserver struct {
	ecs.Base
	EntityRef
	*observer
}

func (preRenderObserver) Stage() system.Stage          { return system.StagePreRender }
func (p *preRenderObserver) Update(time.Duration) error { p.observe(p.Entity()); return nil }

type drawer struct {
	ecs.Base
	updates, draws *int
}

func (drawer) Stage() system.Stage          { return system.StageRender }
func (d *drawer) Update(time.Duration) error { *d.updates++; return nil }
func (d *drawer) Render()                    { *d.draws++ }

// failing returns errBoom from the physics stage.
type failing struct {
	ecs.Base
}

func (failing) Stage() system.Stage          { return system.StagePhysics }
func (f *failing) Update(time.Duration) error { return errBoom }

// noDraw claims the render stage without implementing Render.
type noDraw struct {
	ecs.Base
}

func (noDraw) Stage() system.Stage          { return system.StageRender }
func (n *noDraw) Update(time.Duration) error { return nil }

// spawner spawns one entity from the postphysics stage.
type spawner struct {
	ecs.Base
	EntityRef
	spawned *Entity
}

func (spawner) Stage() system.Stage { return system.StagePostPhysics }

func (s *spawner) Update(time.Duration) error {
	if s.spawned == nil {
		s.spawned = s.Entity().Universe().SpawnEntity(At(vec(100, 100)), false)
	}
	return nil
}

type tag struct {
	ecs.Base
	name string
}

func (tag) Stage() system.Stage          { return system.StageBehaviour }
func (t *tag) Update(time.Duration) error { return nil }

type label struct {
	ecs.Base
}

func (label) Stage() system.Stage          { return system.StageBehaviour }
func (l *label) Update(time.Duration) error { return nil }
