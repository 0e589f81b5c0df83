package render

import (
	"time"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/system"
	"github.com/MatsPresent/Engine/internal/vmath"
	"github.com/MatsPresent/Engine/internal/world"
)

// Matrix caches its entity's world matrix once per full render pass.
type Matrix struct {
	ecs.Base
	world.EntityRef
	m vmath.Affine
}

func (Matrix) Stage() system.Stage { return system.StagePreRender }

func (m *Matrix) Update(time.Duration) error {
	m.m = m.Entity().Transform().Matrix()
	return nil
}

// Affine returns the matrix computed by the last prerender pass.
func (m *Matrix) Affine() vmath.Affine { return m.m }

// Sprite draws a texture over a Size rectangle whose lower corner sits at
// Offset in entity space. It uses the entity's Matrix component when one is
// attached and the entity transform otherwise.
type Sprite struct {
	ecs.Base
	world.EntityRef

	Texture string
	Offset  cp.Vector
	Size    cp.Vector
	Depth   int
	Backend Backend

	draw Draw
}

func (Sprite) Stage() system.Stage { return system.StageRender }

func (s *Sprite) Update(time.Duration) error {
	e := s.Entity()
	var m vmath.Affine
	if mc, ok := world.FindComponent[Matrix](e); ok {
		m = mc.Affine()
	} else {
		m = e.Transform().Matrix()
	}
	local := vmath.Translation(s.Offset).Mul(vmath.Scaling(s.Size))
	s.draw = Draw{Texture: s.Texture, Transform: m.Mul(local), Depth: s.Depth}
	return nil
}

// Render replays the draw prepared by the last full pass.
func (s *Sprite) Render() {
	if s.Backend == nil || s.Texture == "" {
		return
	}
	s.Backend.Draw(s.draw)
}
