package renderer

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief Snapshots the backend's frame timings. GetLatestTimings only sees
 * what the last CaptureFrameTimings collected.
 */
type FrameTimingManager struct {
	backend native.FrameTimingBackend

	mutex     sync.Mutex
	captured  []metadata.FrameTiming
	scratch   []metadata.FrameTiming
	history   *containers.RingQueue[metadata.FrameTiming]
	lastStart uint64
}

func newFrameTimingManager(backend native.FrameTimingBackend, history int) *FrameTimingManager {
	return &FrameTimingManager{
		backend: backend,
		scratch: make([]metadata.FrameTiming, history),
		history: containers.NewRingQueue[metadata.FrameTiming](history),
	}
}

// CaptureFrameTimings takes a snapshot of the completed frames, newest first.
func (m *FrameTimingManager) CaptureFrameTimings() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	n := m.backend.FrameTimings(m.scratch)
	m.captured = append(m.captured[:0], m.scratch[:n]...)

	// Feed frames newer than the last capture into the history, oldest first.
	for i := n - 1; i >= 0; i-- {
		if t := m.scratch[i]; t.FrameStartTimestamp > m.lastStart {
			m.history.Push(t)
			m.lastStart = t.FrameStartTimestamp
		}
	}
}

// GetLatestTimings copies captured timings into out, newest first. With an
// empty out it returns how many timings are available.
func (m *FrameTimingManager) GetLatestTimings(out []metadata.FrameTiming) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(out) == 0 {
		return len(m.captured)
	}
	return copy(out, m.captured)
}

func (m *FrameTimingManager) CPUTimerFrequency() uint64 {
	return m.backend.CPUTimerFrequency()
}

func (m *FrameTimingManager) GPUTimerFrequency() uint64 {
	return m.backend.GPUTimerFrequency()
}

func (m *FrameTimingManager) VSyncsPerSecond() float32 {
	return m.backend.VSyncsPerSecond()
}

// AverageFrameTime is the mean CPU and GPU frame time in milliseconds over the history.
func (m *FrameTimingManager) AverageFrameTime() (cpu, gpu float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	frames := make([]metadata.FrameTiming, m.history.Len())
	n := m.history.Latest(frames)
	if n == 0 {
		return 0, 0
	}
	for _, t := range frames[:n] {
		cpu += t.CPUFrameTime
		gpu += t.GPUFrameTime
	}
	return cpu / float64(n), gpu / float64(n)
}

// FPS derives frames per second from the average CPU frame time.
func (m *FrameTimingManager) FPS() float64 {
	cpu, _ := m.AverageFrameTime()
	if cpu <= 0 {
		return 0
	}
	return 1000 / cpu
}

// Reset forgets the captured frames and the averaging history.
func (m *FrameTimingManager) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.captured = m.captured[:0]
	for !m.history.IsEmpty() {
		if _, err := m.history.Dequeue(); err != nil {
			core.LogError("frame timing history: %s", err)
			break
		}
	}
}
