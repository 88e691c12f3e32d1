package software

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

func ticksToMillis(ticks uint64) float64 {
	return float64(ticks) * 1000 / float64(core.ClockFrequency)
}

// BeginFrame opens a frame. Work executed until EndFrame counts as its GPU time.
func (b *Backend) BeginFrame() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.frameOpen {
		return core.InvalidOperation("BeginFrame called twice without EndFrame")
	}
	b.frameOpen = true
	b.frameStart = b.clock.Ticks()
	b.firstSubmit = 0
	b.gpuTicks = 0
	return nil
}

// EndFrame closes the frame, records its timing and applies pending display changes.
func (b *Backend) EndFrame() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.frameOpen {
		return core.InvalidOperation("EndFrame called without BeginFrame")
	}
	b.frameOpen = false
	now := b.clock.Ticks()
	firstSubmit := b.firstSubmit
	if firstSubmit == 0 {
		firstSubmit = b.frameStart
	}
	cpu := ticksToMillis(now - b.frameStart)
	gpu := ticksToMillis(b.gpuTicks)
	if b.timingOn {
		b.timings.Push(metadata.FrameTiming{
			FrameStartTimestamp:      b.frameStart,
			FirstSubmitTimestamp:     firstSubmit,
			CPUTimePresentCalled:     now,
			CPUTimeFrameComplete:     now,
			CPUFrameTime:             cpu,
			CPUMainThreadFrameTime:   cpu,
			CPURenderThreadFrameTime: gpu,
			GPUFrameTime:             gpu,
			HeightScale:              b.heightScale,
			WidthScale:               b.widthScale,
			SyncInterval:             1,
		})
	}
	b.applyHDRModeChanges()
	return nil
}

func (b *Backend) FrameTimings(out []metadata.FrameTiming) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.timings.Latest(out)
}

// SetFrameTimingEnabled toggles recording, mirroring the frame_timing.enabled setting.
func (b *Backend) SetFrameTimingEnabled(on bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.timingOn = on
}

func (b *Backend) CPUTimerFrequency() uint64 {
	return core.ClockFrequency
}

func (b *Backend) GPUTimerFrequency() uint64 {
	return core.ClockFrequency
}

func (b *Backend) VSyncsPerSecond() float32 {
	if r := b.CurrentResolution().RefreshRateRatio.Value(); r > 0 {
		return float32(r)
	}
	return b.refresh
}

// ResizeBuffers scales every dynamically scalable buffer, the backbuffer included.
func (b *Backend) ResizeBuffers(widthScale, heightScale float32) error {
	if widthScale <= 0 || widthScale > 1 || heightScale <= 0 || heightScale > 1 {
		return core.InvalidArgument("scale factors must be in (0, 1], got %g x %g", widthScale, heightScale)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.widthScale, b.heightScale = widthScale, heightScale
	return b.ensureBackbuffer()
}

func (b *Backend) ScaleFactors() (float32, float32) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.widthScale, b.heightScale
}
