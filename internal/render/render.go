// Package render holds the prerender and render stage components and the
// backend they draw through. The engine never owns a window; a host plugs
// in a Backend.
package render

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/MatsPresent/Engine/internal/vmath"
)

// Draw is one sprite draw call. Transform maps the unit square onto the
// sprite's world placement.
type Draw struct {
	Texture   string
	Transform vmath.Affine
	Depth     int
}

// Backend receives draw calls from the render stage.
type Backend interface {
	Draw(d Draw)
}

// LogBackend logs draw calls at debug level and counts them.
type LogBackend struct {
	log   *zap.Logger
	draws atomic.Uint64
}

func NewLogBackend(log *zap.Logger) *LogBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogBackend{log: log}
}

func (b *LogBackend) Draw(d Draw) {
	b.draws.Add(1)
	if ce := b.log.Check(zap.DebugLevel, "draw"); ce != nil {
		o := d.Transform.Origin()
		ce.Write(zap.String("texture", d.Texture), zap.Int("depth", d.Depth),
			zap.Float64("x", o.X), zap.Float64("y", o.Y))
	}
}

// Draws returns the number of draw calls received so far.
func (b *LogBackend) Draws() uint64 { return b.draws.Load() }
