package main

import (
	"github.com/paulmach/orb"
)

// Frame 渲染视口大小（像素）
type Frame struct {
	Width  int `mapstructure:"width" json:"width" validate:"gt=0"`
	Height int `mapstructure:"height" json:"height" validate:"gt=0"`
}

// Renderer 地图渲染器.
//
// SetViewport, SetFrame, SetInteractionEnabled and SetDebugOverlay must only be
// called on the renderer context, i.e. from a function passed to RunOnMain.
type Renderer interface {
	// RunOnMain runs f on the renderer context and returns once it has finished.
	// It is not re-entrant: calling it from the renderer context, including from
	// a render-complete callback or from within f, blocks forever. Code running
	// there that needs to start or stop a traversal must hand off to another
	// goroutine first.
	RunOnMain(f func())
	SetViewport(center orb.Point, zoom float64, animated bool)
	// OnRenderComplete registers a callback invoked on the renderer context
	// each time a render pass of the current viewport completes.
	OnRenderComplete(f func())
	SetInteractionEnabled(enabled bool)
	SetFrame(frame Frame)
	SetDebugOverlay(enabled bool)
}
