package metadata

// CommandBufferExecutionFlags restricts what a command buffer may record.
type CommandBufferExecutionFlags int32

const (
	ExecutionFlagsNone         CommandBufferExecutionFlags = 0
	ExecutionFlagsAsyncCompute CommandBufferExecutionFlags = 2
)

func (f CommandBufferExecutionFlags) Has(flag CommandBufferExecutionFlags) bool {
	return f&flag == flag
}

func (f CommandBufferExecutionFlags) String() string {
	if f.Has(ExecutionFlagsAsyncCompute) {
		return "AsyncCompute"
	}
	return "None"
}

type SynchronisationStage int32

const (
	SynchronisationStageVertexProcessing SynchronisationStage = 0
	SynchronisationStagePixelProcessing  SynchronisationStage = 1
)

type SynchronisationStageFlags int32

const (
	SynchronisationStageFlagsVertexProcessing  SynchronisationStageFlags = 1
	SynchronisationStageFlagsPixelProcessing   SynchronisationStageFlags = 2
	SynchronisationStageFlagsComputeProcessing SynchronisationStageFlags = 4
	SynchronisationStageFlagsAllGPUOperations  SynchronisationStageFlags = 7
)

// StageFlags converts a legacy stage to its flag form.
func (s SynchronisationStage) StageFlags() SynchronisationStageFlags {
	if s == SynchronisationStageVertexProcessing {
		return SynchronisationStageFlagsVertexProcessing
	}
	return SynchronisationStageFlagsPixelProcessing
}

func (f SynchronisationStageFlags) IsValid() bool {
	return f != 0 && f&^SynchronisationStageFlagsAllGPUOperations == 0
}

type GraphicsFenceType int32

const (
	GraphicsFenceAsyncQueueSynchronisation GraphicsFenceType = 0
	GraphicsFenceCPUSynchronisation        GraphicsFenceType = 1
)

type ComputeQueueType int32

const (
	ComputeQueueDefault    ComputeQueueType = 0
	ComputeQueueBackground ComputeQueueType = 1
	ComputeQueueUrgent     ComputeQueueType = 2
)

func (q ComputeQueueType) IsValid() bool {
	return q >= ComputeQueueDefault && q <= ComputeQueueUrgent
}

// MaxInstancesPerDraw bounds DrawMeshInstanced.
const MaxInstancesPerDraw = 1023
