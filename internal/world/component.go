package world

import (
	"fmt"
	"slices"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/system"
)

// Component is the contract of a component type: a pointer to a struct
// embedding ecs.Base that updates and names its stage. Render-stage types
// also implement ecs.Renderer.
type Component[T any] interface {
	*T
	ecs.Updater
	system.Staged
}

// EntityRef gives a component access to its owning entity. Embed it next
// to ecs.Base; it is bound when the component is added.
type EntityRef struct {
	entity *Entity
}

func (r *EntityRef) Entity() *Entity { return r.entity }

func (r *EntityRef) attach(e *Entity) { r.entity = e }

type attacher interface {
	attach(e *Entity)
}

// stageOf validates the stage a component type declares on its zero value.
func stageOf[T any, PT Component[T]]() (system.Stage, error) {
	var zero T
	p := PT(&zero)
	s := p.Stage()
	if !s.Valid() {
		return s, fmt.Errorf("%s in %s: %w", ecs.TypeOf[T](), s, ErrInvalidStage)
	}
	if _, ok := any(p).(ecs.Renderer); s == system.StageRender && !ok {
		return s, fmt.Errorf("%s does not render: %w", ecs.TypeOf[T](), ErrInvalidStage)
	}
	return s, nil
}

func column[T any, PT Component[T]](u *Universe, s system.Stage, create bool) *ecs.Column[T, PT] {
	l := u.lists[s]
	if st, ok := l.Column(ecs.TypeOf[T]()); ok {
		return st.(*ecs.Column[T, PT])
	}
	if !create {
		return nil
	}
	c := ecs.NewColumn[T, PT]()
	l.Register(c)
	return c
}

// AddComponent stores v in its stage's column of e's universe and attaches
// it to e. The returned pointer is valid until the next add or remove of
// the same component type in that universe.
func AddComponent[T any, PT Component[T]](e *Entity, v T) (PT, error) {
	if e.destroying {
		return nil, fmt.Errorf("add %s to entity %d: %w", ecs.TypeOf[T](), e.id, ecs.ErrInvalidID)
	}
	s, err := stageOf[T, PT]()
	if err != nil {
		return nil, err
	}
	u := e.universe
	id, p := column[T, PT](u, s, true).Add(v, e.id, u.id)
	if a, ok := any(p).(attacher); ok {
		a.attach(e)
	}

	t := ecs.TypeOf[T]()
	at := e.components[t]
	if at == nil {
		at = &attachment{stage: s}
		e.components[t] = at
	}
	at.ids = append(at.ids, id)
	return p, nil
}

// GetComponent returns the first component of type T attached to e.
func GetComponent[T any, PT Component[T]](e *Entity) (PT, error) {
	p, ok := FindComponent[T, PT](e)
	if !ok {
		return nil, fmt.Errorf("entity %d: %s: %w", e.id, ecs.TypeOf[T](), ErrComponentNotFound)
	}
	return p, nil
}

// FindComponent is GetComponent without the error.
func FindComponent[T any, PT Component[T]](e *Entity) (PT, bool) {
	at := e.components[ecs.TypeOf[T]()]
	if at == nil || len(at.ids) == 0 {
		return nil, false
	}
	c := column[T, PT](e.universe, at.stage, false)
	if c == nil {
		return nil, false
	}
	return c.Get(at.ids[0])
}

// GetComponentByID returns the component of type T with the given id. An id
// that is attached to e under a different type yields ErrComponentType.
func GetComponentByID[T any, PT Component[T]](e *Entity, id ecs.ID) (PT, error) {
	t := ecs.TypeOf[T]()
	if at := e.components[t]; at != nil && slices.Contains(at.ids, id) {
		if c := column[T, PT](e.universe, at.stage, false); c != nil {
			if p, ok := c.Get(id); ok {
				return p, nil
			}
		}
	}
	for other, at := range e.components {
		if other != t && slices.Contains(at.ids, id) {
			return nil, fmt.Errorf("entity %d: component %d is %s, not %s: %w", e.id, id, other, t, ErrComponentType)
		}
	}
	return nil, fmt.Errorf("entity %d: %s %d: %w", e.id, t, id, ErrComponentNotFound)
}

// Components returns every component of type T attached to e, in attach
// order.
func Components[T any, PT Component[T]](e *Entity) []PT {
	at := e.components[ecs.TypeOf[T]()]
	if at == nil {
		return nil
	}
	c := column[T, PT](e.universe, at.stage, false)
	if c == nil {
		return nil
	}
	out := make([]PT, 0, len(at.ids))
	for _, id := range at.ids {
		if p, ok := c.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func HasComponent[T any](e *Entity) bool {
	return ComponentCount[T](e) > 0
}

func ComponentCount[T any](e *Entity) int {
	at := e.components[ecs.TypeOf[T]()]
	if at == nil {
		return 0
	}
	return len(at.ids)
}

// RemoveComponent detaches the component of type T with the given id. While
// the universe is ticking the instance keeps running until the tick ends.
func RemoveComponent[T any](e *Entity, id ecs.ID) error {
	t := ecs.TypeOf[T]()
	at := e.components[t]
	if at == nil {
		return fmt.Errorf("entity %d: %s: %w", e.id, t, ErrComponentNotFound)
	}
	i := slices.Index(at.ids, id)
	if i < 0 {
		return fmt.Errorf("entity %d: %s %d: %w", e.id, t, id, ErrComponentNotFound)
	}
	at.ids = slices.Delete(at.ids, i, i+1)
	if len(at.ids) == 0 {
		delete(e.components, t)
	}
	e.universe.removeComponent(at.stage, t, id)
	return nil
}
