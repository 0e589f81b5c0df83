package system

import "fmt"

// Stage defines execution ordering within a tick or frame.
type Stage int

const (
	// fixed tick
	StagePhysics     Stage = iota // 0: free to modify any aspect of the entity
	StagePostPhysics              // 1: gridspace relocation runs in the pool, transforms readonly
	StageInput                    // 2: collision runs in the pool, reads see the buffered transform
	StageBehaviour                // 3: free to modify any aspect of the entity
	// frame
	StagePreRender // 4: render matrices are computed, transforms readonly
	StageRender    // 5: per-component draw calls

	StageCount
)

var stageNames = [StageCount]string{
	"physics", "postphysics", "input", "behaviour", "prerender", "render",
}

func (s Stage) String() string {
	if s < 0 || s >= StageCount {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) Valid() bool { return s >= 0 && s < StageCount }

// Staged is implemented by component types. The value must not depend on
// instance state; it is queried on the zero value.
type Staged interface {
	Stage() Stage
}
