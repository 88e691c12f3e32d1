package testbed

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/commands"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/mesh"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
	"github.com/spaghettifunk/lumen/engine/texture"
)

const (
	offscreenSize = 256
	// A readback of the offscreen target is requested every readbackInterval frames.
	readbackInterval = 120
)

type TestGame struct {
	*engine.Game
	// When set, the last offscreen frame is written there as a PNG on shutdown.
	SnapshotPath string
	// When set, the first .mat and .obj found there replace the built-in
	// material and quad.
	AssetsPath string
	// WatchAssets reloads them when the files change.
	WatchAssets bool
}

type gameState struct {
	renderer *renderer.Renderer
	backend  native.Backend

	quad      *mesh.Mesh
	material  *material.Material
	checker   *texture.Texture2D
	offscreen *texture.RenderTexture
	target    metadata.RenderTargetIdentifier
	frameCmd  *commands.CommandBuffer

	assets   *assets.Manager
	matAsset *assets.MaterialAsset
	model    *assets.ModelAsset
	reload   atomic.Bool

	angle  float32
	frame  int
	width  int
	height int
}

func NewTestGame(app *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: app,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize builds a textured quad, an offscreen target and the command
// buffer that renders into it.
func (g *TestGame) Initialize(r *renderer.Renderer, backend native.Backend) error {
	core.LogInfo("initializing testbed...")
	s := g.state()
	s.renderer, s.backend = r, backend

	quad, err := newQuad(backend)
	if err != nil {
		return err
	}
	s.quad = quad

	checker, err := newChecker(backend, 8)
	if err != nil {
		return err
	}
	s.checker = checker

	mat, err := material.New(backend, "Unlit/Texture")
	if err != nil {
		return err
	}
	if err := mat.SetTexture("_MainTex", checker); err != nil {
		return err
	}
	if err := mat.SetColor("_Color", math.NewColor(1, 0.8, 0.4, 1)); err != nil {
		return err
	}
	s.material = mat

	rt, err := texture.NewRenderTextureLegacy(backend, offscreenSize, offscreenSize, 24,
		metadata.RenderTextureFormatARGB32, metadata.RenderTextureReadWriteLinear)
	if err != nil {
		return err
	}
	if err := rt.Create(); err != nil {
		return err
	}
	s.offscreen = rt
	if s.target, err = rt.Identifier(); err != nil {
		return err
	}

	cb, err := commands.New(backend, commands.WithName("testbed.offscreen"))
	if err != nil {
		return err
	}
	s.frameCmd = cb

	if g.AssetsPath == "" {
		return nil
	}
	if s.assets, err = assets.NewManager(backend, g.AssetsPath); err != nil {
		return err
	}
	if err := g.loadAssets(); err != nil {
		return err
	}
	if g.WatchAssets {
		core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, g, g.onAssetChanged)
		return s.assets.Watch()
	}
	return nil
}

func (g *TestGame) onAssetChanged(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	core.LogInfo("asset %s changed, reloading on the next frame", data.Path)
	g.state().reload.Store(true)
	return false
}

// loadAssets swaps in the first material and model of the asset directory.
// The previous ones stay in use when loading fails.
func (g *TestGame) loadAssets() error {
	s := g.state()
	if mats := s.assets.List(assets.KindMaterial); len(mats) > 0 {
		ma, err := s.assets.LoadMaterial(mats[0].Name)
		if err != nil {
			return err
		}
		var old error
		if s.matAsset != nil {
			old = s.matAsset.Destroy()
		} else {
			old = s.material.Destroy()
		}
		if old != nil {
			core.LogWarn("releasing material %q: %s", s.material.Name, old)
		}
		s.matAsset, s.material = ma, ma.Material
		core.LogInfo("testbed material %q from %s", ma.Material.Name, mats[0].Name)
	}
	if models := s.assets.List(assets.KindModel); len(models) > 0 {
		model, err := s.assets.LoadMesh(models[0].Name)
		if err != nil {
			return err
		}
		var old error
		if s.model != nil {
			old = s.model.Destroy()
		} else {
			old = s.quad.Destroy()
		}
		if old != nil {
			core.LogWarn("releasing mesh %q: %s", s.quad.Name, old)
		}
		s.model, s.quad = model, model.Mesh
		core.LogInfo("testbed mesh %q from %s", model.Mesh.Name, models[0].Name)
	}
	return nil
}

func newQuad(backend native.Backend) (*mesh.Mesh, error) {
	m, err := mesh.New(backend)
	if err != nil {
		return nil, err
	}
	m.Name = "testbed_quad"
	vertices := []math.Vec3{
		{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5},
	}
	uvs := []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if err := m.SetVertices(vertices); err != nil {
		return nil, err
	}
	if err := m.SetUVs(0, uvs); err != nil {
		return nil, err
	}
	if err := m.SetTriangles([]int32{0, 1, 2, 0, 2, 3}, 0); err != nil {
		return nil, err
	}
	if err := m.RecalculateNormals(); err != nil {
		return nil, err
	}
	return m, nil
}

// newChecker returns a size x size checkerboard texture.
func newChecker(backend native.Backend, size int) (*texture.Texture2D, error) {
	tex, err := texture.New2D(backend, size, size, metadata.FormatR8G8B8A8_SRGB, metadata.TextureCreationMipChain)
	if err != nil {
		return nil, err
	}
	tex.Name = "testbed_checker"
	pixels := make([]math.Color32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				pixels[y*size+x] = math.Color32{R: 255, G: 255, B: 255, A: 255}
			} else {
				pixels[y*size+x] = math.Color32{R: 40, G: 40, B: 40, A: 255}
			}
		}
	}
	if err := tex.SetPixels32(pixels, 0); err != nil {
		return nil, err
	}
	if err := tex.SetFilterMode(metadata.FilterModePoint); err != nil {
		return nil, err
	}
	return tex, tex.Apply(true, false)
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	s.angle += float32(0.5 * deltaTime)
	s.frame++
	if s.reload.CompareAndSwap(true, false) {
		if err := s.assets.Rescan(); err != nil {
			return err
		}
		if err := g.loadAssets(); err != nil {
			core.LogWarn("asset reload failed: %s", err)
		}
	}
	return nil
}

/**
 * @brief Draws the spinning quad offscreen, blits it to the backbuffer and
 * outlines the screen with immediate lines.
 */
func (g *TestGame) Render(r *renderer.Renderer, deltaTime float64) error {
	s := g.state()
	cb := s.frameCmd
	cb.Clear()

	rotation := math.NewQuatFromAxisAngle(math.NewVec3(0, 0, 1), s.angle, true)
	model := math.NewMat4TRS(math.Vec3{}, rotation, math.NewVec3(1, 1, 1))

	if err := cb.SetRenderTarget(s.target); err != nil {
		return err
	}
	if err := cb.ClearRenderTarget(metadata.RTClearAll, math.NewColor(0.1, 0.1, 0.15, 1), 1, 0); err != nil {
		return err
	}
	if err := cb.DrawMesh(s.quad, model, s.material); err != nil {
		return err
	}
	camera := metadata.NewRenderTargetFromBuiltin(metadata.BuiltinCameraTarget)
	if err := cb.Blit(s.target, camera); err != nil {
		return err
	}
	if err := r.Graphics.ExecuteCommandBuffer(cb); err != nil {
		return err
	}

	if err := g.drawFrame(r); err != nil {
		return err
	}

	if s.frame%readbackInterval == 0 && r.SystemInfo.SupportsAsyncGPUReadback() {
		if _, err := r.Readback.Request(s.offscreen, 0, renderer.WithCallback(logCenterPixel)); err != nil {
			core.LogWarn("readback request failed: %s", err)
		}
	}
	return nil
}

// drawFrame outlines the screen in pixel coordinates.
func (g *TestGame) drawFrame(r *renderer.Renderer) error {
	s := g.state()
	gl := r.GL
	if err := gl.PushMatrix(); err != nil {
		return err
	}
	defer func() {
		if err := gl.PopMatrix(); err != nil {
			core.LogError(err.Error())
		}
	}()
	gl.LoadPixelMatrix()
	if err := gl.Begin(renderer.GLLineStrip); err != nil {
		return err
	}
	gl.Color(math.NewColor(1, 1, 1, 1))
	w, h := float32(s.width-1), float32(s.height-1)
	for _, p := range [][2]float32{{0, 0}, {w, 0}, {w, h}, {0, h}, {0, 0}} {
		if err := gl.Vertex3(p[0], p[1], 0); err != nil {
			return err
		}
	}
	return gl.End()
}

func logCenterPixel(req *renderer.AsyncGPUReadbackRequest) {
	if req.HasError() {
		core.LogWarn("readback %s failed: %s", req.ID(), req.Err())
		return
	}
	data, err := req.GetData()
	if err != nil {
		core.LogWarn("readback %s: %s", req.ID(), err)
		return
	}
	bpp := req.Format().BlockSize()
	center := (req.Height()/2*req.Width() + req.Width()/2) * bpp
	if bpp <= 0 || center+bpp > len(data) {
		return
	}
	core.LogDebug("readback %s: center texel %v", req.ID(), data[center:center+bpp])
}

func (g *TestGame) OnResize(width, height int) error {
	s := g.state()
	s.width, s.height = width, height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

// Shutdown writes the snapshot when asked and releases the scene.
func (g *TestGame) Shutdown() error {
	s := g.state()
	if s.renderer == nil {
		return nil
	}
	if g.SnapshotPath != "" {
		if err := g.snapshot(); err != nil {
			core.LogError("snapshot failed: %s", err)
		}
	}
	s.frameCmd.Release()
	var errs []error
	if s.assets != nil {
		core.EventUnregister(core.EVENT_CODE_ASSET_CHANGED, g)
		errs = append(errs, s.assets.Close())
	}
	errs = append(errs, s.offscreen.Release(), s.checker.Destroy())
	// Loaded assets destroyed the built-in quad and material they replaced.
	if s.matAsset != nil {
		errs = append(errs, s.matAsset.Destroy())
	} else {
		errs = append(errs, s.material.Destroy())
	}
	if s.model != nil {
		errs = append(errs, s.model.Destroy())
	} else {
		errs = append(errs, s.quad.Destroy())
	}
	return errors.Join(errs...)
}

func (g *TestGame) snapshot() error {
	s := g.state()
	tex, err := texture.New2D(s.backend, offscreenSize, offscreenSize, metadata.FormatR8G8B8A8_UNorm, metadata.TextureCreationNone)
	if err != nil {
		return err
	}
	defer tex.Destroy()
	if err := s.renderer.Graphics.SetRenderTarget(s.target); err != nil {
		return err
	}
	if err := tex.ReadPixels(math.RectInt{Width: offscreenSize, Height: offscreenSize}, 0, 0, false); err != nil {
		return err
	}
	data, err := tex.EncodeToPNG()
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.SnapshotPath, data, 0o644); err != nil {
		return err
	}
	core.LogInfo("wrote %s", g.SnapshotPath)
	return nil
}
