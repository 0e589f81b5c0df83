package ecs

import (
	"reflect"
	"time"
)

// TypeID is an opaque per-type identity token, stable for the process lifetime.
type TypeID struct {
	t reflect.Type
}

func TypeOf[T any]() TypeID {
	return TypeID{t: reflect.TypeOf((*T)(nil)).Elem()}
}

func (id TypeID) String() string {
	if id.t == nil {
		return "<nil>"
	}
	return id.t.String()
}

// Base carries the ids every component exposes. Component types embed it;
// the ids are assigned when the component is added to a column.
type Base struct {
	id       ID
	entity   ID
	universe ID
}

func (b *Base) ID() ID         { return b.id }
func (b *Base) EntityID() ID   { return b.entity }
func (b *Base) UniverseID() ID { return b.universe }

func (b *Base) base() *Base { return b }

// Updater is the per-instance contract of a component. It can only be
// satisfied by types embedding Base.
type Updater interface {
	Update(dt time.Duration) error
	ID() ID
	EntityID() ID
	UniverseID() ID
	base() *Base
}

// Renderer is implemented by render-stage components.
type Renderer interface {
	Render()
}

// Store is the type-erased view of a column, so a stage can hold columns
// of different component types and drive them uniformly.
type Store interface {
	Type() TypeID
	Len() int
	Remove(id ID) bool
	Update(dt time.Duration) error
	Render()
}
