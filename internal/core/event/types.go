package event

import (
	"github.com/jakecoffman/cp"

	"github.com/MatsPresent/Engine/internal/core/ecs"
)

// BeginOverlap is raised when Other enters the overlap set of Entity's
// collider at index Collider.
type BeginOverlap struct {
	Universe ecs.ID
	Entity   ecs.ID
	Collider int
	Other    ecs.ID
}

// EndOverlap is raised when Other leaves that overlap set.
type EndOverlap struct {
	Universe ecs.ID
	Entity   ecs.ID
	Collider int
	Other    ecs.ID
}

// Hit is raised for every blocking resolution. MTV is the correction that
// was computed for Entity against Other.
type Hit struct {
	Universe ecs.ID
	Entity   ecs.ID
	Collider int
	Other    ecs.ID
	MTV      cp.Vector
}
