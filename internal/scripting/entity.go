package scripting

import (
	"fmt"
	"slices"

	"github.com/jakecoffman/cp"
	lua "github.com/yuin/gopher-lua"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/world"
)

const entityTypeName = "entity"

var entityMethods = map[string]lua.LGFunction{
	"id":           entityID,
	"universe":     entityUniverse,
	"static":       entityStatic,
	"position":     entityPosition,
	"set_position": entitySetPosition,
	"translate":    entityTranslate,
	"rotation":     entityRotation,
	"set_rotation": entitySetRotation,
	"velocity":     entityVelocity,
	"set_velocity": entitySetVelocity,
	"overlaps":     entityOverlaps,
	"overlapping":  entityOverlapping,
	"nearby":       entityNearby,
	"destroy":      entityDestroy,
}

func (e *Engine) registerEntityType() {
	mt := e.vm.NewTypeMetatable(entityTypeName)
	e.vm.SetField(mt, "__index", e.vm.SetFuncs(e.vm.NewTable(), entityMethods))
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(fmt.Sprintf("entity(%d)", checkEntity(L).ID())))
		return 1
	}))
}

// wrap returns a Lua handle for ent.
func (e *Engine) wrap(ent *world.Entity) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ent
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState) *world.Entity {
	ud := L.CheckUserData(1)
	if ent, ok := ud.Value.(*world.Entity); ok {
		return ent
	}
	L.ArgError(1, "entity expected")
	return nil
}

func checkVector(L *lua.LState, n int) cp.Vector {
	return cp.Vector{X: float64(L.CheckNumber(n)), Y: float64(L.CheckNumber(n + 1))}
}

func pushVector(L *lua.LState, v cp.Vector) int {
	L.Push(lua.LNumber(v.X))
	L.Push(lua.LNumber(v.Y))
	return 2
}

func idTable(L *lua.LState, ids []ecs.ID) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for i, id := range ids {
		t.RawSetInt(i+1, lua.LNumber(id))
	}
	return t
}

func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func entityID(L *lua.LState) int {
	L.Push(lua.LNumber(checkEntity(L).ID()))
	return 1
}

func entityUniverse(L *lua.LState) int {
	L.Push(lua.LNumber(checkEntity(L).UniverseID()))
	return 1
}

func entityStatic(L *lua.LState) int {
	L.Push(lua.LBool(checkEntity(L).Static()))
	return 1
}

func entityPosition(L *lua.LState) int {
	return pushVector(L, checkEntity(L).Transform().Translate)
}

func entitySetPosition(L *lua.LState) int {
	ent := checkEntity(L)
	t := ent.Transform()
	t.Translate = checkVector(L, 2)
	raise(L, ent.SetTransform(t))
	return 0
}

func entityTranslate(L *lua.LState) int {
	ent := checkEntity(L)
	raise(L, ent.Translate(checkVector(L, 2)))
	return 0
}

func entityRotation(L *lua.LState) int {
	L.Push(lua.LNumber(checkEntity(L).Transform().Rotate))
	return 1
}

func entitySetRotation(L *lua.LState) int {
	ent := checkEntity(L)
	t := ent.Transform()
	t.Rotate = float64(L.CheckNumber(2))
	raise(L, ent.SetTransform(t))
	return 0
}

func entityVelocity(L *lua.LState) int {
	return pushVector(L, checkEntity(L).Velocity())
}

func entitySetVelocity(L *lua.LState) int {
	ent := checkEntity(L)
	ent.SetVelocity(checkVector(L, 2))
	return 0
}

// overlaps returns the ids overlapping any collider of the entity.
func entityOverlaps(L *lua.LState) int {
	ent := checkEntity(L)
	var ids []ecs.ID
	for _, c := range ent.Colliders() {
		ids = append(ids, c.Overlaps()...)
	}
	slices.Sort(ids)
	L.Push(idTable(L, slices.Compact(ids)))
	return 1
}

func entityOverlapping(L *lua.LState) int {
	ent := checkEntity(L)
	other := ecs.ID(L.CheckInt(2))
	for _, c := range ent.Colliders() {
		if c.Overlapping(other) {
			L.Push(lua.LTrue)
			return 1
		}
	}
	L.Push(lua.LFalse)
	return 1
}

func entityNearby(L *lua.LState) int {
	ent := checkEntity(L)
	radius := float64(L.CheckNumber(2))
	found, err := ent.Universe().EntitiesInRange(ent.Transform().Translate, radius)
	raise(L, err)
	var ids []ecs.ID
	for _, o := range found {
		if o != ent {
			ids = append(ids, o.ID())
		}
	}
	slices.Sort(ids)
	L.Push(idTable(L, ids))
	return 1
}

func entityDestroy(L *lua.LState) int {
	ent := checkEntity(L)
	raise(L, ent.Universe().Destroy(ent))
	return 0
}
