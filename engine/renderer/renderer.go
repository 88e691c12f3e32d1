package renderer

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief The renderer front end. Every façade forwards to the same backend;
 * none of them keeps state the others depend on.
 */
type Renderer struct {
	backend native.Backend

	Graphics       *Graphics
	GL             *GL
	Screen         *Screen
	ScalableBuffer *ScalableBufferManager
	FrameTiming    *FrameTimingManager
	LightProbes    *LightProbes
	SystemInfo     *SystemInfo
	Readback       *AsyncGPUReadback

	hdr []*HDROutputSettings

	mutex   sync.Mutex
	inFrame bool
}

// New builds the façades over backend. Most callers use Initialize instead.
func New(backend native.Backend, opts ...Option) (*Renderer, error) {
	if backend == nil {
		return nil, core.InvalidArgument("renderer backend is nil")
	}
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	r := &Renderer{
		backend:        backend,
		Graphics:       newGraphics(backend),
		GL:             newGL(backend),
		Screen:         newScreen(backend),
		ScalableBuffer: newScalableBufferManager(backend),
		FrameTiming:    newFrameTimingManager(backend, settings.frameTimingHistory),
		LightProbes:    newLightProbes(backend),
		SystemInfo:     newSystemInfo(backend),
		Readback:       newAsyncGPUReadback(backend),
	}
	for i := 0; i < backend.HDRDisplayCount(); i++ {
		r.hdr = append(r.hdr, &HDROutputSettings{backend: backend, index: i})
	}
	return r, nil
}

type settings struct {
	frameTimingHistory int
}

func defaultSettings() settings {
	return settings{frameTimingHistory: 120}
}

type Option func(*settings)

// WithFrameTimingHistory sets how many frames FrameTimingManager keeps for averages.
func WithFrameTimingHistory(frames int) Option {
	return func(s *settings) {
		if frames > 0 {
			s.frameTimingHistory = frames
		}
	}
}

func (r *Renderer) Backend() native.Backend {
	return r.backend
}

// HDRDisplays returns the HDR output settings of every connected display.
func (r *Renderer) HDRDisplays() []*HDROutputSettings {
	return append([]*HDROutputSettings(nil), r.hdr...)
}

// MainHDR returns the settings of the main display, or nil when there is none.
func (r *Renderer) MainHDR() *HDROutputSettings {
	if len(r.hdr) == 0 {
		return nil
	}
	return r.hdr[0]
}

func (r *Renderer) BeginFrame() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.inFrame {
		return core.InvalidOperation("BeginFrame called twice without EndFrame")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return core.NativeFailure("BeginFrame", err)
	}
	r.inFrame = true
	return nil
}

// EndFrame flushes queued draws and immediate geometry, closes the frame and
// announces any HDR mode switch that became effective.
func (r *Renderer) EndFrame() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if !r.inFrame {
		return core.InvalidOperation("EndFrame called without BeginFrame")
	}
	r.inFrame = false

	// The frame is closed even when a flush fails.
	flushErr := r.Graphics.flush()
	if err := r.GL.Flush(); err != nil && flushErr == nil {
		flushErr = err
	}

	before := make([]bool, len(r.hdr))
	for i, h := range r.hdr {
		before[i] = h.active()
	}
	if err := r.backend.EndFrame(); err != nil {
		return core.NativeFailure("EndFrame", err)
	}
	for i, h := range r.hdr {
		if now := h.active(); now != before[i] {
			core.EventFire(core.EVENT_CODE_HDR_MODE_CHANGED, h, core.EventContext{
				I32:  [4]int32{int32(i)},
				Bool: now,
			})
		}
	}
	return flushErr
}

// DrawFrame runs fn between BeginFrame and EndFrame.
func (r *Renderer) DrawFrame(fn func(r *Renderer) error) error {
	if err := r.BeginFrame(); err != nil {
		core.LogError(err.Error())
		return err
	}
	if fn != nil {
		if err := fn(r); err != nil {
			core.LogError("frame callback failed: %s", err)
			if endErr := r.EndFrame(); endErr != nil {
				core.LogError(endErr.Error())
			}
			return err
		}
	}
	if err := r.EndFrame(); err != nil {
		core.LogError("EndFrame failed: %s", err)
		return err
	}
	return nil
}

// Close shuts the backend down. Readbacks it did not finish fail.
func (r *Renderer) Close() error {
	err := r.backend.Shutdown()
	r.Readback.cancelPending()
	if err != nil {
		return core.NativeFailure("Shutdown", err)
	}
	return nil
}

var initRenderer sync.Once
var renderer *Renderer
var initErr error

// Initialize creates the process-wide renderer once. Later calls return the
// error of the first one.
func Initialize(backend native.Backend, opts ...Option) error {
	initRenderer.Do(func() {
		renderer, initErr = New(backend, opts...)
	})
	if initErr != nil {
		return initErr
	}
	if renderer.backend != backend {
		core.LogWarn("renderer already initialized with %s, ignoring new backend", renderer.backend.DeviceName())
	}
	return nil
}

// Get returns the process-wide renderer, or nil before Initialize.
func Get() *Renderer {
	return renderer
}

func Shutdown() error {
	if renderer == nil {
		return nil
	}
	return renderer.Close()
}

func BeginFrame() error {
	if renderer == nil {
		return core.InvalidOperation("renderer is not initialized")
	}
	return renderer.BeginFrame()
}

func EndFrame() error {
	if renderer == nil {
		return core.InvalidOperation("renderer is not initialized")
	}
	return renderer.EndFrame()
}

func DrawFrame(fn func(r *Renderer) error) error {
	if renderer == nil {
		return core.InvalidOperation("renderer is not initialized")
	}
	return renderer.DrawFrame(fn)
}
