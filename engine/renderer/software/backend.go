package software

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief In-memory implementation of native.Backend. Resources live in
 * handle tables, commands are executed on the CPU and async work runs on a
 * JobSystem. Display and capabilities can be replaced by a real platform.
 */
type Backend struct {
	native.Capabilities
	native.DisplayBackend

	mutex sync.Mutex

	meshes      *core.HandleTable[meshObject]
	textures    *core.HandleTable[textureObject]
	materials   *core.HandleTable[materialObject]
	fences      *core.HandleTable[fenceObject]
	structures  *core.HandleTable[accelerationStructure]
	computes    *core.HandleTable[computeShaderObject]
	tempRTs     map[int32]native.Handle
	rtPool      []pooledRT
	rtPoolLimit int

	state       executorState
	stats       Stats
	backbuffer  native.Handle
	jobs        *JobSystem
	hdr         []native.HDRDisplayState
	probes      lightProbeSet
	widthScale  float32
	heightScale float32

	clock       *core.Clock
	frameOpen   bool
	frameStart  uint64
	firstSubmit uint64
	gpuTicks    uint64
	timings     *containers.RingQueue[metadata.FrameTiming]
	timingOn    bool
	refresh     float32

	shutdownOnce sync.Once
}

var _ native.Backend = (*Backend)(nil)

type Option func(*Backend)

// WithCapabilities replaces the configuration derived capability table.
func WithCapabilities(caps native.Capabilities) Option {
	return func(b *Backend) {
		b.Capabilities = caps
	}
}

// WithDisplay replaces the headless display, e.g. with a glfw window.
func WithDisplay(display native.DisplayBackend) Option {
	return func(b *Backend) {
		b.DisplayBackend = display
	}
}

func New(cfg *config.Config, opts ...Option) (*Backend, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	jobs, err := NewJobSystem(cfg.Renderer.JobWorkers, 64)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		meshes:      core.NewHandleTable[meshObject](64),
		textures:    core.NewHandleTable[textureObject](64),
		materials:   core.NewHandleTable[materialObject](16),
		fences:      core.NewHandleTable[fenceObject](16),
		structures:  core.NewHandleTable[accelerationStructure](4),
		computes:    core.NewHandleTable[computeShaderObject](4),
		tempRTs:     make(map[int32]native.Handle),
		rtPoolLimit: cfg.Renderer.TemporaryRTPoolSize,
		jobs:        jobs,
		widthScale:  1,
		heightScale: 1,
		clock:       core.NewClock(),
		timings:     containers.NewRingQueue[metadata.FrameTiming](cfg.FrameTiming.HistorySize),
		timingOn:    cfg.FrameTiming.Enabled,
		refresh:     float32(cfg.Screen.RefreshRate),
	}
	b.state.reset()
	b.hdr = newHDRDisplays(cfg.HDR)
	b.probes = newLightProbeSet(cfg.LightProbes)

	for _, opt := range opts {
		opt(b)
	}
	if b.Capabilities == nil {
		caps := NewTableCapabilities(cfg.Renderer)
		for _, d := range b.hdr {
			if d.Available {
				caps.SetFeature(native.FeatureHDRDisplay, true)
			}
		}
		b.Capabilities = caps
	}
	if b.DisplayBackend == nil {
		display, err := NewHeadlessDisplay(cfg.Screen)
		if err != nil {
			_ = jobs.Shutdown()
			return nil, err
		}
		b.DisplayBackend = display
	}
	if err := b.resizeBackbuffer(); err != nil {
		_ = jobs.Shutdown()
		return nil, err
	}
	b.clock.Start()
	core.LogInfo("software backend initialized (%s, %d workers)", b.DeviceName(), cfg.Renderer.JobWorkers)
	return b, nil
}

// Shutdown waits for queued async work and stops the worker pool.
func (b *Backend) Shutdown() error {
	var err error
	b.shutdownOnce.Do(func() {
		err = b.jobs.Shutdown()
		b.clock.Stop()
	})
	return err
}

// WaitIdle blocks until all async compute and readback work has finished.
func (b *Backend) WaitIdle() {
	b.jobs.Wait()
}

/** @brief Counters of executed work, used by tests and the demo. */
type Stats struct {
	DrawCalls      int
	Instances      int
	Dispatches     int
	Blits          int
	Copies         int
	Clears         int
	ImmediateDraws int
	AsyncBatches   int
	CommandsRun    int
}

func (b *Backend) Stats() Stats {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.stats
}

func (b *Backend) ResetStats() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.stats = Stats{}
}

func toHandle(id uint32) native.Handle {
	return native.Handle(id + 1)
}

func fromHandle(h native.Handle) (uint32, error) {
	if !h.IsValid() {
		return 0, fmt.Errorf("invalid handle")
	}
	return uint32(h) - 1, nil
}
