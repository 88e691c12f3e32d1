package metadata

/**
 * @brief Timing of one completed frame. Timestamps are in timer ticks,
 * durations in milliseconds. Field order matches the native struct.
 */
type FrameTiming struct {
	FrameStartTimestamp          uint64
	FirstSubmitTimestamp         uint64
	CPUTimePresentCalled         uint64
	CPUTimeFrameComplete         uint64
	CPUFrameTime                 float64
	CPUMainThreadFrameTime       float64
	CPUMainThreadPresentWaitTime float64
	CPURenderThreadFrameTime     float64
	GPUFrameTime                 float64
	HeightScale                  float32
	WidthScale                   float32
	SyncInterval                 uint32
}
