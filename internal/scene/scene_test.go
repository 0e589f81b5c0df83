package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/collision"
	"github.com/MatsPresent/Engine/internal/physics"
	"github.com/MatsPresent/Engine/internal/render"
	"github.com/MatsPresent/Engine/internal/scripting"
	"github.com/MatsPresent/Engine/internal/world"
)

const demo = `
universes:
  - name: arena
    grid: {cell_count_x: 8, cell_count_y: 8, cell_size_x: 32, cell_size_y: 32}
    update_interval: 10ms
    entities:
      - name: wall
        static: true
        position: [0, 0]
        colliders:
          - shape: {type: rectangle, lower: [0, 0], upper: [10, 100]}
            layer: 1
            default: block
      - name: ball
        position: [20, 20]
        velocity: [-100, 0]
        colliders:
          - shape: {type: ellipse, centre: [0, 0], radii: [4, 4]}
            responses: {1: block, 2: overlap}
        sprite: {texture: ball.png, size: [8, 8], offset: [-4, -4]}
        script: spin
      - name: post
        static: true
        position: [100, 0]
        repeat: {count: 3, step: [0, 20]}
  - name: empty
`

func writeScene(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndSpawn(t *testing.T) {
	f, err := Load(writeScene(t, demo))
	if err != nil {
		t.Fatal(err)
	}
	if f.Entities() != 5 {
		t.Fatalf("expected 5 entities, got %d", f.Entities())
	}

	scripts, err := scripting.NewEngine("", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer scripts.Close()
	if err := scripts.DoString(`function spin(e, dt) e:set_rotation(e:rotation() + 1) end`); err != nil {
		t.Fatal(err)
	}

	w := world.New(1, nil)
	defer w.Close()
	backend := render.NewLogBackend(nil)
	us, err := f.Spawn(w, Options{
		Grid:           world.GridConfig{CellCountX: 2, CellCountY: 2, CellSizeX: 8, CellSizeY: 8},
		UpdateInterval: 50 * time.Millisecond,
		Backend:        backend,
		Scripts:        scripts,
	})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if len(us) != 2 {
		t.Fatalf("expected 2 universes, got %d", len(us))
	}
	arena, empty := us[0], us[1]
	if arena.UpdateInterval() != 10*time.Millisecond || empty.UpdateInterval() != 50*time.Millisecond {
		t.Fatalf("intervals not applied: %v %v", arena.UpdateInterval(), empty.UpdateInterval())
	}
	if cx, cy := empty.Gridspace().CellCounts(); cx != 2 || cy != 2 {
		t.Fatalf("default grid not used: %d x %d", cx, cy)
	}
	if arena.Len() != 5 || empty.Len() != 0 {
		t.Fatalf("unexpected entity counts %d %d", arena.Len(), empty.Len())
	}

	ents := arena.Entities()
	wall, ball := ents[0], ents[1]
	if !wall.Static() || ball.Static() {
		t.Fatalf("static flags wrong")
	}
	wc := wall.Colliders()[0]
	if wc.Layer() != 1 || wc.Response(5) != collision.Block {
		t.Fatalf("wall collider misconfigured")
	}
	bc := ball.Colliders()[0]
	if bc.Shape().Kind() != collision.KindEllipse || bc.Response(1) != collision.Block ||
		bc.Response(2) != collision.Overlap || bc.Response(0) != collision.Ignore {
		t.Fatalf("ball collider misconfigured")
	}
	if !world.HasComponent[physics.Motion](ball) || !world.HasComponent[render.Sprite](ball) ||
		!world.HasComponent[render.Matrix](ball) || !world.HasComponent[scripting.Script](ball) {
		t.Fatalf("ball components missing")
	}
	if world.HasComponent[physics.Motion](wall) {
		t.Fatalf("static wall got a motion component")
	}
	if got := ents[4].Transform().Translate; got != (cp.Vector{X: 100, Y: 40}) {
		t.Fatalf("repeat placed the last post at %v", got)
	}

	if err := w.Update(10 * time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if ball.Transform().Translate.X >= 20 || ball.Transform().Rotate != 1 {
		t.Fatalf("ball did not move and spin: %+v", ball.Transform())
	}
	if err := w.Render(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if backend.Draws() != 1 {
		t.Fatalf("expected one draw, got %d", backend.Draws())
	}
}

func TestSpawnRejectsInvalidScenes(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown shape", `
universes:
  - entities:
      - colliders: [{shape: {type: blob}}]`},
		{"bad layer", `
universes:
  - entities:
      - colliders: [{layer: 8}]`},
		{"bad response", `
universes:
  - entities:
      - colliders: [{responses: {0: bounce}}]`},
		{"script without engine", `
universes:
  - entities:
      - script: tick`},
		{"inverted rectangle", `
universes:
  - entities:
      - colliders: [{shape: {type: rectangle, lower: [5, 5], upper: [0, 0]}}]`},
		{"flat ellipse", `
universes:
  - entities:
      - colliders: [{shape: {type: ellipse, radii: [0, 3]}}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse([]byte(tc.src))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			w := world.New(1, nil)
			defer w.Close()
			grid := world.GridConfig{CellCountX: 2, CellCountY: 2, CellSizeX: 8, CellSizeY: 8}
			_, err = f.Spawn(w, Options{Grid: grid})
			if !errors.Is(err, ErrInvalidScene) {
				t.Fatalf("expected ErrInvalidScene, got %v", err)
			}
			if n := len(w.Universes()); n != 0 {
				t.Fatalf("failed spawn left %d universes behind", n)
			}
		})
	}
}

func TestSpawnRejectsBadGrid(t *testing.T) {
	f, err := Parse([]byte("universes: [{name: a}, {name: b, grid: {cell_count_x: 0}}]"))
	if err != nil {
		t.Fatal(err)
	}
	w := world.New(1, nil)
	defer w.Close()
	grid := world.GridConfig{CellCountX: 2, CellCountY: 2, CellSizeX: 8, CellSizeY: 8}
	if _, err := f.Spawn(w, Options{Grid: grid}); !errors.Is(err, world.ErrInvalidGrid) {
		t.Fatalf("expected ErrInvalidGrid, got %v", err)
	}
	if len(w.Universes()) != 0 {
		t.Fatalf("first universe not rolled back")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := Load(writeScene(t, "universes: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
