package system

import (
	"fmt"
	"time"

	"github.com/MatsPresent/Engine/internal/core/ecs"
)

// List holds one column per component type registered to a stage and runs
// them in registration order.
type List struct {
	stage   Stage
	columns []ecs.Store
	lookup  map[ecs.TypeID]int
}

func NewList(stage Stage) *List {
	return &List{
		stage:   stage,
		columns: make([]ecs.Store, 0, 8),
		lookup:  make(map[ecs.TypeID]int, 8),
	}
}

func (l *List) Stage() Stage { return l.stage }

// Column returns the column registered for the type, if any.
func (l *List) Column(t ecs.TypeID) (ecs.Store, bool) {
	i, ok := l.lookup[t]
	if !ok {
		return nil, false
	}
	return l.columns[i], true
}

// Register appends a column. Registering a second column for a type that
// already has one is a programming error.
func (l *List) Register(s ecs.Store) {
	if _, ok := l.lookup[s.Type()]; ok {
		panic(fmt.Sprintf("system: %s already registered to %s", s.Type(), l.stage))
	}
	l.lookup[s.Type()] = len(l.columns)
	l.columns = append(l.columns, s)
}

// Remove deletes one component instance of the given type.
func (l *List) Remove(t ecs.TypeID, id ecs.ID) bool {
	s, ok := l.Column(t)
	if !ok {
		return false
	}
	return s.Remove(id)
}

// Len returns the number of live components across all columns.
func (l *List) Len() int {
	n := 0
	for _, s := range l.columns {
		n += s.Len()
	}
	return n
}

func (l *List) Update(dt time.Duration) error {
	for _, s := range l.columns {
		if err := s.Update(dt); err != nil {
			return fmt.Errorf("%s: %w", l.stage, err)
		}
	}
	return nil
}

func (l *List) Render() {
	for _, s := range l.columns {
		s.Render()
	}
}
