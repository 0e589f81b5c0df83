package world

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/collision"
	"github.com/MatsPresent/Engine/internal/core/event"
)

const frame = 16 * time.Millisecond

func nearVec(a, b cp.Vector) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestStaticVersusDynamicBlock(t *testing.T) {
	w, u := newTestWorld(t)
	wall, _ := box(t, u, vec(0, 0), true)
	mob, _ := box(t, u, vec(8, 0), false)

	if err := w.Update(frame); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := wall.Transform().Translate; got != vec(0, 0) {
		t.Fatalf("static entity moved to %v", got)
	}
	if got := mob.Transform().Translate; !nearVec(got, vec(10, 0)) {
		t.Fatalf("expected dynamic entity at (10, 0), got %v", got)
	}
}

func TestDynamicVersusDynamicBlockSplitsEvenly(t *testing.T) {
	w, u := newTestWorld(t)
	a, _ := box(t, u, vec(0, 0), false)
	b, _ := box(t, u, vec(8, 0), false)

	if err := w.Update(frame); err != nil {
		t.Fatalf("update: %v", err)
	}
	da := a.Transform().Translate.Sub(vec(0, 0))
	db := b.Transform().Translate.Sub(vec(8, 0))
	if !nearVec(da, vec(-1, 0)) || !nearVec(db, vec(1, 0)) {
		t.Fatalf("expected an even split, got %v and %v", da, db)
	}
	if total := db.Sub(da); !nearVec(total, vec(2, 0)) {
		t.Fatalf("corrections do not add up to the mtv: %v", total)
	}
}

func TestIgnoreSuppressesResponse(t *testing.T) {
	tests := []struct {
		name   string
		aResp  collision.Response
		bResp  collision.Response
		moved  bool
		listed bool
	}{
		{"block ignore", collision.Block, collision.Ignore, false, false},
		{"ignore block", collision.Ignore, collision.Block, false, false},
		{"overlap ignore", collision.Overlap, collision.Ignore, false, false},
		{"overlap block", collision.Overlap, collision.Block, false, true},
		{"block block", collision.Block, collision.Block, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, u := newTestWorld(t)
			a, ca := box(t, u, vec(0, 0), false)
			b, cb := box(t, u, vec(8, 0), false)
			cb.SetLayer(1)
			ca.SetResponse(1, tc.aResp)
			cb.SetResponse(0, tc.bResp)

			if err := w.Update(frame); err != nil {
				t.Fatalf("update: %v", err)
			}
			moved := a.Transform().Translate != vec(0, 0) || b.Transform().Translate != vec(8, 0)
			if moved != tc.moved {
				t.Fatalf("expected moved=%v", tc.moved)
			}
			if ca.Overlapping(b.ID()) != tc.listed || cb.Overlapping(a.ID()) != tc.listed {
				t.Fatalf("expected listed=%v, got %v %v", tc.listed, ca.Overlaps(), cb.Overlaps())
			}
		})
	}
}

func TestOverlapEventsArriveNextUpdate(t *testing.T) {
	w, u := newTestWorld(t)
	a, ca := box(t, u, vec(0, 0), false)
	b, cb := box(t, u, vec(8, 0), false)
	ca.SetResponse(0, collision.Overlap)
	cb.SetResponse(0, collision.Overlap)

	var begins []event.BeginOverlap
	var ends []event.EndOverlap
	event.Subscribe(w.Bus(), func(ev event.BeginOverlap) { begins = append(begins, ev) })
	event.Subscribe(w.Bus(), func(ev event.EndOverlap) { ends = append(ends, ev) })

	if err := w.Update(frame); err != nil {
		t.Fatal(err)
	}
	if len(begins) != 0 {
		t.Fatalf("events delivered in the update that raised them")
	}
	if err := b.SetTransform(At(vec(40, 0))); err != nil {
		t.Fatal(err)
	}
	if err := w.Update(frame); err != nil {
		t.Fatal(err)
	}
	if len(begins) != 2 {
		t.Fatalf("expected two begin events, got %v", begins)
	}
	for _, ev := range begins {
		if ev.Universe != u.ID() || (ev.Entity == a.ID()) == (ev.Other == a.ID()) {
			t.Fatalf("malformed event %+v", ev)
		}
	}
	if err := w.Update(frame); err != nil {
		t.Fatal(err)
	}
	if len(ends) != 2 {
		t.Fatalf("expected two end events after separating, got %v", ends)
	}
}

func TestHitEvents(t *testing.T) {
	w, u := newTestWorld(t)
	box(t, u, vec(0, 0), true)
	mob, _ := box(t, u, vec(8, 0), false)

	var hits []event.Hit
	event.Subscribe(w.Bus(), func(ev event.Hit) { hits = append(hits, ev) })
	for i := 0; i < 2; i++ {
		if err := w.Update(frame); err != nil {
			t.Fatal(err)
		}
	}
	if len(hits) != 2 {
		t.Fatalf("expected a hit for each side, got %v", hits)
	}
	for _, h := range hits {
		if h.Entity == mob.ID() && !nearVec(h.MTV, vec(2, 0)) {
			t.Fatalf("unexpected mtv %v", h.MTV)
		}
	}
}

func TestStageFlags(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)

	observers := map[string]*observer{}
	add := func(name string, err error) {
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	observers["physics"] = &observer{}
	_, err := AddComponent(e, physicsObserver{observer: observers["physics"]})
	add("physics", err)
	observers["postphysics"] = &observer{}
	_, err = AddComponent(e, postPhysicsObserver{observer: observers["postphysics"]})
	add("postphysics", err)
	observers["input"] = &observer{}
	_, err = AddComponent(e, inputObserver{observer: observers["input"]})
	add("input", err)
	observers["behaviour"] = &observer{}
	_, err = AddComponent(e, behaviourObserver{observer: observers["behaviour"]})
	add("behaviour", err)
	observers["prerender"] = &observer{}
	_, err = AddComponent(e, preRenderObserver{observer: observers["prerender"]})
	add("prerender", err)

	if err := w.Update(frame); err != nil {
		t.Fatal(err)
	}
	if err := w.Render(frame); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		stage      string
		readonly   bool
		readBuffer bool
		writeErr   error
	}{
		{"physics", false, false, nil},
		{"postphysics", true, false, ErrTransformLocked},
		{"input", true, true, ErrTransformLocked},
		{"behaviour", false, false, nil},
		{"prerender", true, false, ErrTransformLocked},
	}
	for _, tc := range tests {
		t.Run(tc.stage, func(t *testing.T) {
			p := observers[tc.stage]
			if p.runs != 1 {
				t.Fatalf("expected one run, got %d", p.runs)
			}
			if p.readonly != tc.readonly || p.readBuffer != tc.readBuffer {
				t.Fatalf("flags readonly=%v readBuffer=%v", p.readonly, p.readBuffer)
			}
			if !errors.Is(p.writeErr, tc.writeErr) {
				t.Fatalf("expected write error %v, got %v", tc.writeErr, p.writeErr)
			}
		})
	}
	if u.TransformReadonly() || u.TransformReadBuffer() {
		t.Fatalf("flags left set after the tick")
	}
}

func TestFixedTickAccumulator(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)
	if _, err := AddComponent(e, mover{step: vec(1, 0)}); err != nil {
		t.Fatal(err)
	}
	u.SetUpdateInterval(10 * time.Millisecond)

	steps := []struct {
		dt   time.Duration
		want float64
	}{
		{25 * time.Millisecond, 2},
		{5 * time.Millisecond, 3},
		{9 * time.Millisecond, 3},
		{time.Millisecond, 4},
	}
	for _, s := range steps {
		if err := w.Update(s.dt); err != nil {
			t.Fatal(err)
		}
		if got := e.Transform().Translate.X; got != s.want {
			t.Fatalf("after %v: expected x=%v, got %v", s.dt, s.want, got)
		}
	}

	u.SetUpdateEnabled(false)
	if err := w.Update(time.Second); err != nil {
		t.Fatal(err)
	}
	if got := e.Transform().Translate.X; got != 4 {
		t.Fatalf("disabled universe ticked: x=%v", got)
	}

	u.SetUpdateInterval(-time.Second)
	if u.UpdateInterval() != 0 {
		t.Fatalf("negative interval not clamped")
	}
}

func TestRenderInterval(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)
	var updates, draws int
	if _, err := AddComponent(e, drawer{updates: &updates, draws: &draws}); err != nil {
		t.Fatal(err)
	}
	u.SetRenderInterval(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := w.Render(4 * time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	if updates != 2 || draws != 3 {
		t.Fatalf("expected 2 full passes and 3 draws, got %d and %d", updates, draws)
	}

	u.SetRenderEnabled(false)
	if err := w.Render(time.Second); err != nil {
		t.Fatal(err)
	}
	if draws != 3 {
		t.Fatalf("disabled universe rendered")
	}
}

func TestStageErrorPropagates(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)
	if _, err := AddComponent(e, failing{}); err != nil {
		t.Fatal(err)
	}
	err := w.Update(frame)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if u.TransformReadonly() {
		t.Fatalf("readonly left set after a failed tick")
	}
}

func TestSpawnWhileBusyIsFiledAfterJoin(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)
	s, err := AddComponent(e, spawner{})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Update(frame); err != nil {
		t.Fatal(err)
	}
	if s.spawned == nil {
		t.Fatalf("spawner did not run")
	}
	if s.spawned.Cell() != u.Gridspace().CellOf(vec(100, 100)) {
		t.Fatalf("deferred spawn not filed: cell %d", s.spawned.Cell())
	}
	if u.Gridspace().Len() != 2 || u.Len() != 2 {
		t.Fatalf("expected 2 entities, got grid %d universe %d", u.Gridspace().Len(), u.Len())
	}
	if _, ok := w.LookupEntity(s.spawned.ID()); !ok {
		t.Fatalf("spawned entity not registered")
	}
}

func TestDestroyAndFlush(t *testing.T) {
	w, u := newTestWorld(t)
	keep := u.SpawnEntity(At(vec(0, 0)), false)
	gone, _ := box(t, u, vec(5, 0), false)
	if _, err := AddComponent(gone, tag{}); err != nil {
		t.Fatal(err)
	}

	if err := u.Destroy(gone); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.LookupEntity(gone.ID()); !ok {
		t.Fatalf("destroy should be deferred")
	}
	if err := u.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.LookupEntity(gone.ID()); ok {
		t.Fatalf("entity still registered after flush")
	}
	if u.Len() != 1 || u.Entities()[0] != keep {
		t.Fatalf("unexpected members %v", u.Entities())
	}
	if u.Gridspace().Len() != 1 {
		t.Fatalf("entity still filed in the grid")
	}
	if u.Stage(tag{}.Stage()).Len() != 0 {
		t.Fatalf("components of destroyed entity still stored")
	}

	other, err := w.CreateUniverse(GridConfig{CellCountX: 1, CellCountY: 1, CellSizeX: 1, CellSizeY: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Destroy(keep); !errors.Is(err, ErrForeignEntity) {
		t.Fatalf("expected ErrForeignEntity, got %v", err)
	}
}

func TestDestroyUniverse(t *testing.T) {
	w, u := newTestWorld(t)
	e := u.SpawnEntity(At(vec(0, 0)), false)
	if err := w.DestroyUniverse(u.ID()); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.LookupUniverse(u.ID()); ok {
		t.Fatalf("universe still registered")
	}
	if _, ok := w.LookupEntity(e.ID()); ok {
		t.Fatalf("entity of destroyed universe still registered")
	}
	if err := w.DestroyUniverse(u.ID()); err == nil {
		t.Fatalf("expected error on second destroy")
	}
}
