package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/event"
	"github.com/MatsPresent/Engine/internal/core/system"
	"github.com/MatsPresent/Engine/internal/world"
)

// Script calls the global Lua function Func every behaviour tick as
//
//	Func(entity, dt_seconds, state)
//
// where state is a table private to this component instance.
type Script struct {
	ecs.Base
	world.EntityRef

	Engine *Engine
	Func   string

	handle *lua.LUserData
	state  *lua.LTable
}

func (Script) Stage() system.Stage { return system.StageBehaviour }

func (s *Script) Update(dt time.Duration) error {
	if s.Engine == nil || s.Func == "" {
		return nil
	}
	ent := s.Entity()
	if s.handle == nil || s.handle.Value != ent {
		s.handle = s.Engine.wrap(ent)
		s.state = s.Engine.vm.NewTable()
	}
	return s.Engine.call(s.Func, s.handle, lua.LNumber(dt.Seconds()), s.state)
}

// Bind forwards the world's collision events to the optional global hooks
//
//	on_begin_overlap(entity, other_id)
//	on_end_overlap(entity, other_id)
//	on_hit(entity, other_id, dx, dy)
//
// Events for entities destroyed before delivery are dropped.
func (e *Engine) Bind(w *world.World) {
	bus := w.Bus()
	event.Subscribe(bus, func(ev event.BeginOverlap) {
		e.hook(w, "on_begin_overlap", ev.Entity, lua.LNumber(ev.Other))
	})
	event.Subscribe(bus, func(ev event.EndOverlap) {
		e.hook(w, "on_end_overlap", ev.Entity, lua.LNumber(ev.Other))
	})
	event.Subscribe(bus, func(ev event.Hit) {
		e.hook(w, "on_hit", ev.Entity, lua.LNumber(ev.Other), lua.LNumber(ev.MTV.X), lua.LNumber(ev.MTV.Y))
	})
}

func (e *Engine) hook(w *world.World, name string, id ecs.ID, args ...lua.LValue) {
	if !e.Defined(name) {
		return
	}
	ent, ok := w.LookupEntity(id)
	if !ok {
		return
	}
	e.callHook(name, append([]lua.LValue{e.wrap(ent)}, args...)...)
}
