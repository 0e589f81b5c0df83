package world

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/event"
	"github.com/MatsPresent/Engine/internal/core/pool"
)

// GridConfig sizes a universe's gridspace.
type GridConfig struct {
	CellCountX, CellCountY int
	CellSizeX, CellSizeY   float64
}

// World is the registry every universe and entity is looked up in. It owns
// the worker pool shared by all universes and the event bus. A World is
// driven from one goroutine.
type World struct {
	entities  *ecs.Slots[*Entity]
	universes *ecs.Slots[*Universe]
	pool      *pool.Pool
	bus       *event.Bus
	log       *zap.Logger
}

func New(workers int, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		entities:  ecs.NewSlots[*Entity](256),
		universes: ecs.NewSlots[*Universe](4),
		pool:      pool.New(workers, log),
		bus:       event.NewBus(),
		log:       log,
	}
}

// Close joins the worker pool.
func (w *World) Close() {
	w.pool.Close()
}

func (w *World) Pool() *pool.Pool { return w.pool }

func (w *World) Bus() *event.Bus { return w.bus }

func (w *World) Logger() *zap.Logger { return w.log }

// CreateUniverse registers a new universe with its own gridspace.
func (w *World) CreateUniverse(g GridConfig) (*Universe, error) {
	grid, err := NewGridspace(g.CellCountX, g.CellCountY, g.CellSizeX, g.CellSizeY)
	if err != nil {
		return nil, fmt.Errorf("create universe: %w", err)
	}
	u := newUniverse(w, grid)
	u.id = w.universes.Insert(u)
	u.log = w.log.With(zap.Uint32("universe", uint32(u.id)))
	u.log.Info("universe created",
		zap.Int("cells_x", g.CellCountX), zap.Int("cells_y", g.CellCountY),
		zap.Float64("cell_w", g.CellSizeX), zap.Float64("cell_h", g.CellSizeY))
	return u, nil
}

// DestroyUniverse removes a universe and every entity in it.
func (w *World) DestroyUniverse(id ecs.ID) error {
	u, ok := w.universes.Lookup(id)
	if !ok {
		return fmt.Errorf("destroy universe %d: %w", id, ecs.ErrInvalidID)
	}
	if u.ticking {
		return fmt.Errorf("destroy universe %d: %w", id, ErrUniverseBusy)
	}
	for _, e := range u.members {
		_ = u.Destroy(e)
	}
	u.flush()
	u.log.Info("universe destroyed")
	return w.universes.Erase(id)
}

// Universe returns the universe registered under id and panics on an
// invalid id.
func (w *World) Universe(id ecs.ID) *Universe { return w.universes.At(id) }

func (w *World) LookupUniverse(id ecs.ID) (*Universe, bool) { return w.universes.Lookup(id) }

// Entity returns the entity registered under id and panics on an invalid id.
func (w *World) Entity(id ecs.ID) *Entity { return w.entities.At(id) }

func (w *World) LookupEntity(id ecs.ID) (*Entity, bool) { return w.entities.Lookup(id) }

// Universes returns the live universes in ascending id order.
func (w *World) Universes() []*Universe {
	out := make([]*Universe, 0, w.universes.Len())
	w.universes.Each(func(_ ecs.ID, u *Universe) { out = append(out, u) })
	return out
}

// Update delivers the events raised during the previous update, then
// updates every universe. The first failing universe stops the pass.
func (w *World) Update(dt time.Duration) error {
	w.bus.Dispatch()
	for _, u := range w.Universes() {
		if err := u.Update(dt); err != nil {
			return fmt.Errorf("universe %d: %w", u.id, err)
		}
	}
	return nil
}

func (w *World) Render(dt time.Duration) error {
	for _, u := range w.Universes() {
		if err := u.Render(dt); err != nil {
			return fmt.Errorf("universe %d render: %w", u.id, err)
		}
	}
	return nil
}
