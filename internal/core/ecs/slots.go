package ecs

import (
	"errors"
	"fmt"
)

// ID identifies an entity, universe or component. Ids are 32-bit slot indices;
// erased ids return to a free list and are handed out again by later inserts.
type ID uint32

// InvalidID is the reserved all-ones sentinel. No slot ever has this id.
const InvalidID ID = ^ID(0)

var ErrInvalidID = errors.New("ecs: invalid id")

func (id ID) Valid() bool { return id != InvalidID }

// Slots is a stable-id container with a free list. Lookup is O(1); ids stay
// valid until erased.
type Slots[T any] struct {
	values   []T
	alive    []bool
	freeList []ID
	count    int
}

func NewSlots[T any](capacity int) *Slots[T] {
	return &Slots[T]{
		values:   make([]T, 0, capacity),
		alive:    make([]bool, 0, capacity),
		freeList: make([]ID, 0, capacity/4),
	}
}

// NextID returns the id the next Insert will hand out.
func (s *Slots[T]) NextID() ID {
	if len(s.freeList) > 0 {
		return s.freeList[len(s.freeList)-1]
	}
	return ID(len(s.values))
}

// Insert stores v and returns an id distinct from every live id.
func (s *Slots[T]) Insert(v T) ID {
	s.count++
	if len(s.freeList) > 0 {
		id := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.values[id] = v
		s.alive[id] = true
		return id
	}
	id := ID(len(s.values))
	if id == InvalidID {
		panic("ecs: slot registry exhausted")
	}
	s.values = append(s.values, v)
	s.alive = append(s.alive, true)
	return id
}

// Erase invalidates id and makes its slot available for reuse.
func (s *Slots[T]) Erase(id ID) error {
	if !s.Alive(id) {
		return fmt.Errorf("erase %d: %w", id, ErrInvalidID)
	}
	var zero T
	s.values[id] = zero
	s.alive[id] = false
	s.freeList = append(s.freeList, id)
	s.count--
	return nil
}

func (s *Slots[T]) Alive(id ID) bool {
	return int(id) < len(s.alive) && s.alive[id]
}

// At returns the value stored under id and panics on an invalid id.
func (s *Slots[T]) At(id ID) T {
	if !s.Alive(id) {
		panic(fmt.Sprintf("ecs: slot %d: %v", id, ErrInvalidID))
	}
	return s.values[id]
}

// Lookup returns the value stored under id, if any.
func (s *Slots[T]) Lookup(id ID) (T, bool) {
	if !s.Alive(id) {
		var zero T
		return zero, false
	}
	return s.values[id], true
}

func (s *Slots[T]) Len() int { return s.count }

// Each visits live slots in ascending id order. The order is stable as long
// as the registry is not mutated.
func (s *Slots[T]) Each(fn func(ID, T)) {
	for i, ok := range s.alive {
		if ok {
			fn(ID(i), s.values[i])
		}
	}
}
