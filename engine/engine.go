package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

// probeCapabilities is replaced in tests.
var probeCapabilities = func(appName string) (native.Capabilities, error) {
	return vulkan.ProbeCapabilities(appName)
}

type Engine struct {
	currentStage Stage
	app          *ApplicationConfig
	gameInstance *Game

	cfgMutex sync.RWMutex
	cfg      *config.Config
	watcher  *config.Watcher
	// Set by the watcher goroutine, applied at the start of the next frame.
	pending atomic.Pointer[config.Config]

	window   *platform.Window
	backend  *software.Backend
	renderer *renderer.Renderer

	clock       *core.Clock
	lastTime    float64
	frames      int
	isRunning   atomic.Bool
	isSuspended atomic.Bool
	width       int
	height      int
}

// New loads the configuration and sets up logging. Nothing native is created
// before Initialize.
func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, core.InvalidArgument("game and its application config are required")
	}
	app := g.ApplicationConfig

	cfg := config.Default()
	if app.ConfigPath != "" {
		loaded, err := config.Load(app.ConfigPath)
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
		cfg = loaded
	}
	if app.Name != "" {
		cfg.Renderer.ApplicationName = app.Name
		cfg.Screen.Title = app.Name
	}
	level := cfg.Log.Level
	if app.LogLevel != "" {
		level = app.LogLevel
	}
	if err := core.SetLogLevel(level); err != nil {
		return nil, core.InvalidArgument("log level %q: %s", level, err)
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		app:          app,
		gameInstance: g,
		cfg:          cfg,
		clock:        core.NewClock(),
		width:        cfg.Screen.Width,
		height:       cfg.Screen.Height,
	}, nil
}

// Config returns the configuration currently in effect.
func (e *Engine) Config() *config.Config {
	e.cfgMutex.RLock()
	defer e.cfgMutex.RUnlock()
	return e.cfg
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Backend() *software.Backend {
	return e.backend
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

/**
 * @brief Creates the capability table, the optional window, the backend and
 * the renderer, then hands the renderer to the game.
 */
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return core.InvalidOperation("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	cfg := e.Config()

	var opts []software.Option
	caps, err := e.capabilities(cfg)
	if err != nil {
		return err
	}
	if caps != nil {
		opts = append(opts, software.WithCapabilities(caps))
	}

	if !e.app.Headless {
		w, err := platform.NewWindow(cfg.Screen)
		if err != nil {
			return err
		}
		e.window = w
		opts = append(opts, software.WithDisplay(w))
	}

	b, err := software.New(cfg, opts...)
	if err != nil {
		e.destroyWindow()
		return err
	}
	e.backend = b

	r, err := renderer.New(b, renderer.WithFrameTimingHistory(cfg.FrameTiming.HistorySize))
	if err != nil {
		_ = b.Shutdown()
		e.destroyWindow()
		return err
	}
	e.renderer = r
	core.LogInfo("renderer ready on %s (%s)", r.SystemInfo.GraphicsDeviceName(), cfg.Renderer.Backend)

	core.EventRegister(core.EVENT_CODE_RESOLUTION_CHANGED, e, e.onResized)

	if e.app.WatchConfig && e.app.ConfigPath != "" {
		w, err := config.NewWatcher(e.app.ConfigPath, func(cfg *config.Config) {
			e.pending.Store(cfg)
		})
		if err != nil {
			core.LogWarn("configuration will not be reloaded: %s", err)
		} else {
			e.watcher = w
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(r, b); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// capabilities returns nil when the backend should build its table from cfg.
func (e *Engine) capabilities(cfg *config.Config) (native.Capabilities, error) {
	if cfg.Renderer.Backend != "vulkan" {
		return nil, nil
	}
	caps, err := probeCapabilities(cfg.Renderer.ApplicationName)
	if err == nil {
		return caps, nil
	}
	if errors.Is(err, core.ErrUnsupported) || errors.Is(err, core.ErrNativeFailure) {
		core.LogWarn("Vulkan probe failed, using the configured capability table: %s", err)
		return nil, nil
	}
	return nil, err
}

/**
 * @brief Runs frames until ctx is cancelled, the window closes, MaxFrames is
 * reached or Stop is called.
 */
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return core.InvalidOperation("engine must be initialized before Run")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	defer e.isRunning.Store(false)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if e.app.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.app.TargetFPS)
	}

	for e.isRunning.Load() {
		select {
		case <-ctx.Done():
			core.LogInfo("run cancelled: %s", ctx.Err())
			return nil
		default:
		}
		if e.window != nil {
			platform.PumpMessages()
			if e.window.ShouldClose() {
				core.LogInfo("window closed, shutting down")
				return nil
			}
		}
		if e.isSuspended.Load() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		frameStart := time.Now()
		if err := e.frame(); err != nil {
			core.LogError("frame %d failed: %s", e.frames, err)
			return err
		}
		e.frames++
		if e.app.MaxFrames > 0 && e.frames >= e.app.MaxFrames {
			return nil
		}

		if targetFrameSeconds > 0 {
			remaining := targetFrameSeconds - time.Since(frameStart).Seconds()
			if remaining > 0 {
				time.Sleep(time.Duration(remaining * float64(time.Second)))
			}
		}
	}
	return nil
}

func (e *Engine) frame() error {
	if cfg := e.pending.Swap(nil); cfg != nil {
		e.applyConfig(cfg)
	}
	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	e.lastTime = currentTime

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return err
		}
	}
	if err := e.renderer.DrawFrame(func(r *renderer.Renderer) error {
		if e.gameInstance.FnRender == nil {
			return nil
		}
		return e.gameInstance.FnRender(r, delta)
	}); err != nil {
		return err
	}

	if e.Config().FrameTiming.Enabled {
		e.renderer.FrameTiming.CaptureFrameTimings()
		if e.frames > 0 && e.frames%120 == 0 {
			cpu, gpu := e.renderer.FrameTiming.AverageFrameTime()
			core.LogDebug("frame %d: %.1f fps, cpu %.3f ms, gpu %.3f ms", e.frames, e.renderer.FrameTiming.FPS(), cpu, gpu)
		}
	}
	return nil
}

// Frames returns how many frames Run completed.
func (e *Engine) Frames() int {
	return e.frames
}

// Stop asks Run to return after the current frame.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.Stop()
	core.EventUnregister(core.EVENT_CODE_RESOLUTION_CHANGED, e)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
		e.watcher = nil
	}
	if e.renderer != nil {
		errs = append(errs, e.renderer.Close())
	}
	e.destroyWindow()
	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

func (e *Engine) destroyWindow() {
	if e.window != nil {
		e.window.Destroy()
		e.window = nil
	}
}

// GetFramebufferSize returns the width and height (in this order) of the
// last resolution the engine saw.
func (e *Engine) GetFramebufferSize() (int, int) {
	return e.width, e.height
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	width, height := int(data.I32[0]), int(data.I32[1])
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended.Store(true)
		return false
	}
	if e.isSuspended.Swap(false) {
		core.LogInfo("Window restored, resuming application.")
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

/**
 * @brief Applies the parts of a reloaded configuration that can change at
 * runtime, the log level and the screen mode. Everything else waits for a
 * restart.
 */
func (e *Engine) applyConfig(cfg *config.Config) {
	e.cfgMutex.Lock()
	old := e.cfg
	e.cfg = cfg
	e.cfgMutex.Unlock()

	if e.app.LogLevel == "" && cfg.Log.Level != old.Log.Level {
		if err := core.SetLogLevel(cfg.Log.Level); err != nil {
			core.LogError("log level %q: %s", cfg.Log.Level, err)
		}
	}
	if cfg.Renderer.Backend != old.Renderer.Backend {
		core.LogWarn("renderer.backend changed to %q, restart to apply", cfg.Renderer.Backend)
	}
	if e.renderer == nil || cfg.Screen == old.Screen {
		return
	}
	mode, err := metadata.ParseFullScreenMode(cfg.Screen.FullScreenMode)
	if err != nil {
		core.LogError("screen.full_screen_mode: %s", err)
		return
	}
	rate := metadata.NewRefreshRate(cfg.Screen.RefreshRate)
	if err := e.renderer.Screen.SetResolutionWithRefreshRate(cfg.Screen.Width, cfg.Screen.Height, mode, rate); err != nil {
		core.LogError("applying screen settings: %s", err)
	}
}
