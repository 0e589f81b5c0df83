// Package physics holds the built-in physics-stage components.
package physics

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/core/ecs"
	"github.com/MatsPresent/Engine/internal/core/system"
	"github.com/MatsPresent/Engine/internal/world"
)

// Motion moves its entity by velocity * dt every physics tick.
type Motion struct {
	ecs.Base
	world.EntityRef

	// Damping is the fraction of velocity lost per second, in [0, 1].
	Damping float64
}

func (Motion) Stage() system.Stage { return system.StagePhysics }

func (m *Motion) Update(dt time.Duration) error {
	e := m.Entity()
	if e == nil || e.Static() {
		return nil
	}
	v := e.Velocity()
	if v == (cp.Vector{}) {
		return nil
	}
	secs := dt.Seconds()
	if err := e.Translate(v.Mult(secs)); err != nil {
		return fmt.Errorf("motion: %w", err)
	}
	if m.Damping > 0 {
		e.SetVelocity(v.Mult(max(0, 1-m.Damping*secs)))
	}
	return nil
}
