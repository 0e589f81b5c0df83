package world

import "errors"

var (
	ErrStaticEntity      = errors.New("world: entity is static")
	ErrTransformLocked   = errors.New("world: transform is readonly")
	ErrComponentNotFound = errors.New("world: component not found")
	ErrComponentType     = errors.New("world: component has another type")
	ErrInvalidStage      = errors.New("world: component type cannot run in its stage")
	ErrUniverseBusy      = errors.New("world: universe is busy")
	ErrInvalidGrid       = errors.New("world: invalid grid")
	ErrForeignEntity     = errors.New("world: entity belongs to another universe")
	ErrInvalidRange      = errors.New("world: invalid range query")
)
