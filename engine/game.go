package engine

import (
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func(r *renderer.Renderer, backend native.Backend) error
type Update func(deltaTime float64) error
type Render func(r *renderer.Renderer, deltaTime float64) error
type OnResize func(width, height int) error
type Shutdown func() error
