// Package scene loads YAML scene files and spawns their universes and
// entities into a world.
package scene

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jakecoffman/cp"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScene wraps every validation failure.
var ErrInvalidScene = errors.New("invalid scene")

// Vec is a two-element YAML sequence, [x, y].
type Vec [2]float64

func (v Vec) Vector() cp.Vector { return cp.Vector{X: v[0], Y: v[1]} }

// File is the root of a scene file.
type File struct {
	Universes []UniverseDef `yaml:"universes"`
}

type GridDef struct {
	CellCountX int     `yaml:"cell_count_x"`
	CellCountY int     `yaml:"cell_count_y"`
	CellSizeX  float64 `yaml:"cell_size_x"`
	CellSizeY  float64 `yaml:"cell_size_y"`
}

// UniverseDef describes one universe. Intervals left unset fall back to
// the host's configured rates.
type UniverseDef struct {
	Name           string         `yaml:"name"`
	Grid           *GridDef       `yaml:"grid"`
	UpdateInterval *time.Duration `yaml:"update_interval"`
	RenderInterval *time.Duration `yaml:"render_interval"`
	Entities       []EntityDef    `yaml:"entities"`
}

type EntityDef struct {
	Name      string         `yaml:"name"`
	Position  Vec            `yaml:"position"`
	Rotation  float64        `yaml:"rotation"`
	Scale     *Vec           `yaml:"scale"` // default [1, 1]
	Static    bool           `yaml:"static"`
	Velocity  Vec            `yaml:"velocity"`
	Motion    bool           `yaml:"motion"` // forced on by a non-zero velocity
	Damping   float64        `yaml:"damping"`
	Colliders []ColliderDef  `yaml:"colliders"`
	Sprite    *SpriteDef     `yaml:"sprite"`
	Script    string         `yaml:"script"` // global Lua function name
	Repeat    *RepeatDef     `yaml:"repeat"`
}

// RepeatDef spawns Count copies of an entity, each Step further along.
type RepeatDef struct {
	Count int `yaml:"count"`
	Step  Vec `yaml:"step"`
}

type ColliderDef struct {
	Shape     ShapeDef       `yaml:"shape"`
	Layer     int            `yaml:"layer"`
	Default   string         `yaml:"default"` // response to unlisted layers
	Responses map[int]string `yaml:"responses"`
}

// ShapeDef selects a shape by Type; only the fields of that type are read.
type ShapeDef struct {
	Type     string  `yaml:"type"` // point, line, rectangle, ellipse, convex
	Point    Vec     `yaml:"point"`
	From     Vec     `yaml:"from"`
	To       Vec     `yaml:"to"`
	Lower    Vec     `yaml:"lower"`
	Upper    Vec     `yaml:"upper"`
	Centre   Vec     `yaml:"centre"`
	Radii    Vec     `yaml:"radii"`
	Angle    float64 `yaml:"angle"`
	Vertices []Vec   `yaml:"vertices"`
}

type SpriteDef struct {
	Texture string `yaml:"texture"`
	Offset  Vec    `yaml:"offset"`
	Size    Vec    `yaml:"size"`
	Depth   int    `yaml:"depth"`
}

// Load reads and parses a scene file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return f, nil
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &f, nil
}

// Entities returns the number of entities the file spawns, counting
// repeats.
func (f *File) Entities() int {
	n := 0
	for _, u := range f.Universes {
		for _, e := range u.Entities {
			n += e.copies()
		}
	}
	return n
}

func (e *EntityDef) copies() int {
	if e.Repeat == nil {
		return 1
	}
	return max(e.Repeat.Count, 0)
}
