package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/MatsPresent/Engine/internal/collision"
	"github.com/MatsPresent/Engine/internal/physics"
	"github.com/MatsPresent/Engine/internal/render"
	"github.com/MatsPresent/Engine/internal/scripting"
	"github.com/MatsPresent/Engine/internal/world"
)

// Options carries the host collaborators a scene is spawned with.
type Options struct {
	Grid           world.GridConfig // used by universes without a grid
	UpdateInterval time.Duration
	RenderInterval time.Duration
	Backend        render.Backend
	Scripts        *scripting.Engine
	Log            *zap.Logger
}

// Spawn creates the file's universes in w and populates them. It returns
// the universes in file order. On error the universes created so far are
// destroyed again.
func (f *File) Spawn(w *world.World, opts Options) ([]*world.Universe, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := make([]*world.Universe, 0, len(f.Universes))
	fail := func(err error) ([]*world.Universe, error) {
		for _, u := range out {
			if derr := w.DestroyUniverse(u.ID()); derr != nil {
				err = errors.Join(err, derr)
			}
		}
		return nil, err
	}

	for i := range f.Universes {
		us := &f.Universes[i]
		u, err := spawnUniverse(w, us, opts)
		if err != nil {
			return fail(fmt.Errorf("universe %s: %w", us.label(i), err))
		}
		out = append(out, u)
		log.Info("universe populated",
			zap.String("name", us.Name),
			zap.Uint32("universe", uint32(u.ID())),
			zap.Int("entities", u.Len()))
	}
	return out, nil
}

func (us *UniverseDef) label(i int) string {
	if us.Name != "" {
		return fmt.Sprintf("%q", us.Name)
	}
	return fmt.Sprintf("#%d", i)
}

func (es *EntityDef) label(i int) string {
	if es.Name != "" {
		return fmt.Sprintf("%q", es.Name)
	}
	return fmt.Sprintf("#%d", i)
}

func spawnUniverse(w *world.World, us *UniverseDef, opts Options) (*world.Universe, error) {
	g := opts.Grid
	if us.Grid != nil {
		g = world.GridConfig{
			CellCountX: us.Grid.CellCountX,
			CellCountY: us.Grid.CellCountY,
			CellSizeX:  us.Grid.CellSizeX,
			CellSizeY:  us.Grid.CellSizeY,
		}
	}
	u, err := w.CreateUniverse(g)
	if err != nil {
		return nil, err
	}
	tick, frame := opts.UpdateInterval, opts.RenderInterval
	if us.UpdateInterval != nil {
		tick = *us.UpdateInterval
	}
	if us.RenderInterval != nil {
		frame = *us.RenderInterval
	}
	u.SetUpdateInterval(tick)
	u.SetRenderInterval(frame)

	for j := range us.Entities {
		es := &us.Entities[j]
		if err := spawnEntity(u, es, opts); err != nil {
			derr := w.DestroyUniverse(u.ID())
			return nil, errors.Join(fmt.Errorf("entity %s: %w", es.label(j), err), derr)
		}
	}
	return u, nil
}

func spawnEntity(u *world.Universe, es *EntityDef, opts Options) error {
	if es.Script != "" && opts.Scripts == nil {
		return fmt.Errorf("script %q without a script engine: %w", es.Script, ErrInvalidScene)
	}
	if es.Repeat != nil && es.Repeat.Count < 0 {
		return fmt.Errorf("negative repeat count: %w", ErrInvalidScene)
	}
	shapes := make([]collision.Shape, len(es.Colliders))
	for k := range es.Colliders {
		s, err := es.Colliders[k].Shape.build()
		if err != nil {
			return fmt.Errorf("collider %d: %w", k, err)
		}
		shapes[k] = s
	}

	scale := cp.Vector{X: 1, Y: 1}
	if es.Scale != nil {
		scale = es.Scale.Vector()
	}
	var step cp.Vector
	if es.Repeat != nil {
		step = es.Repeat.Step.Vector()
	}
	for n := 0; n < es.copies(); n++ {
		t := world.Transform{
			Translate: es.Position.Vector().Add(step.Mult(float64(n))),
			Rotate:    es.Rotation,
			Scale:     scale,
		}
		if err := populate(u.SpawnEntity(t, es.Static), es, shapes, opts); err != nil {
			return err
		}
	}
	return nil
}

func populate(e *world.Entity, es *EntityDef, shapes []collision.Shape, opts Options) error {
	for k, cs := range es.Colliders {
		if cs.Layer < 0 || cs.Layer >= collision.LayerCount {
			return fmt.Errorf("collider %d: layer %d out of range: %w", k, cs.Layer, ErrInvalidScene)
		}
		c, err := e.AddCollider(shapes[k], collision.Layer(cs.Layer))
		if err != nil {
			return fmt.Errorf("collider %d: %w", k, err)
		}
		def, err := collision.ParseResponse(cs.Default)
		if err != nil {
			return fmt.Errorf("collider %d: %w: %w", k, ErrInvalidScene, err)
		}
		c.SetResponses(def)
		for layer, name := range cs.Responses {
			if layer < 0 || layer >= collision.LayerCount {
				return fmt.Errorf("collider %d: response layer %d out of range: %w", k, layer, ErrInvalidScene)
			}
			r, err := collision.ParseResponse(name)
			if err != nil {
				return fmt.Errorf("collider %d: %w: %w", k, ErrInvalidScene, err)
			}
			c.SetResponse(collision.Layer(layer), r)
		}
	}

	if !es.Static {
		e.SetVelocity(es.Velocity.Vector())
		if es.Motion || es.Velocity != (Vec{}) {
			if _, err := world.AddComponent(e, physics.Motion{Damping: es.Damping}); err != nil {
				return err
			}
		}
	}
	if sp := es.Sprite; sp != nil {
		if _, err := world.AddComponent(e, render.Matrix{}); err != nil {
			return err
		}
		sprite := render.Sprite{
			Texture: sp.Texture,
			Offset:  sp.Offset.Vector(),
			Size:    sp.Size.Vector(),
			Depth:   sp.Depth,
			Backend: opts.Backend,
		}
		if _, err := world.AddComponent(e, sprite); err != nil {
			return err
		}
	}
	if es.Script != "" {
		if _, err := world.AddComponent(e, scripting.Script{Engine: opts.Scripts, Func: es.Script}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ShapeDef) build() (collision.Shape, error) {
	switch s.Type {
	case "", "none":
		return collision.None{}, nil
	case "point":
		return collision.Point{P: s.Point.Vector()}, nil
	case "line":
		return collision.Line{P0: s.From.Vector(), P1: s.To.Vector()}, nil
	case "rectangle":
		if s.Lower[0] > s.Upper[0] || s.Lower[1] > s.Upper[1] {
			return nil, fmt.Errorf("rectangle lower %v above upper %v: %w", s.Lower, s.Upper, ErrInvalidScene)
		}
		return collision.NewRectangle(s.Lower.Vector(), s.Upper.Vector(), s.Angle), nil
	case "ellipse":
		if s.Radii[0] <= 0 || s.Radii[1] <= 0 {
			return nil, fmt.Errorf("ellipse radii %v must be positive: %w", s.Radii, ErrInvalidScene)
		}
		return collision.NewEllipse(s.Centre.Vector(), s.Radii.Vector(), s.Angle), nil
	case "convex":
		vs := make([]cp.Vector, len(s.Vertices))
		for i, v := range s.Vertices {
			vs[i] = v.Vector()
		}
		return collision.NewConvex(vs...), nil
	}
	return nil, fmt.Errorf("unknown shape type %q: %w", s.Type, ErrInvalidScene)
}
