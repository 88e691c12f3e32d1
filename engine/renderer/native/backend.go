package native

import (
	"strings"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Handle identifies an object owned by the backend. Zero is never issued.
type Handle uint32

const InvalidHandle Handle = 0

func (h Handle) IsValid() bool {
	return h != InvalidHandle
}

// Features is the set of optional device features.
type Features uint64

const (
	FeatureInstancing Features = 1 << iota
	FeatureComputeShaders
	FeatureAsyncCompute
	FeatureGraphicsFence
	FeatureRayTracing
	FeatureTextures3D
	FeatureTexture2DArrays
	FeatureCubemapArrays
	FeatureAsyncGPUReadback
	FeatureHDRDisplay
)

func (f Features) Has(feature Features) bool {
	return f&feature == feature
}

func (f Features) String() string {
	if f == 0 {
		return "None"
	}
	names := []struct {
		feature Features
		name    string
	}{
		{FeatureInstancing, "Instancing"}, {FeatureComputeShaders, "ComputeShaders"},
		{FeatureAsyncCompute, "AsyncCompute"}, {FeatureGraphicsFence, "GraphicsFence"},
		{FeatureRayTracing, "RayTracing"}, {FeatureTextures3D, "Textures3D"},
		{FeatureTexture2DArrays, "Texture2DArrays"}, {FeatureCubemapArrays, "CubemapArrays"},
		{FeatureAsyncGPUReadback, "AsyncGPUReadback"}, {FeatureHDRDisplay, "HDRDisplay"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.feature) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

/** @brief The capability query surface consulted before format-sensitive calls. */
type Capabilities interface {
	DeviceName() string
	Features() Features
	FormatUsage(format metadata.GraphicsFormat) metadata.GraphicsFormatUsage
	MaxTextureSize() int
	MaxCubemapSize() int
	MaxSampleCount() int
}

// IsFormatSupported reports whether caps grants every flag in usage for format.
func IsFormatSupported(caps Capabilities, format metadata.GraphicsFormat, usage metadata.GraphicsFormatUsage) bool {
	if format == metadata.FormatNone {
		return false
	}
	return caps.FormatUsage(format).Has(usage)
}

type MeshBackend interface {
	MeshCreate() (Handle, error)
	MeshDestroy(h Handle) error
	// MeshBuffers returns the live native storage of the mesh.
	MeshBuffers(h Handle) (*MeshBuffers, error)
	MeshUpload(h Handle, markNoLongerReadable bool) error
}

/** @brief Creation parameters for any texture dimension. */
type TextureDesc struct {
	Dimension          metadata.TextureDimension
	Width              int
	Height             int
	Depth              int
	MipCount           int
	Format             metadata.GraphicsFormat
	DepthStencilFormat metadata.GraphicsFormat
	MSAASamples        int
	Flags              metadata.TextureCreationFlags
	RenderTarget       bool
	RandomWrite        bool
	Memoryless         metadata.RenderTextureMemoryless
}

// Slices returns how many 2D images each mip level holds.
func (d TextureDesc) Slices() int {
	switch d.Dimension {
	case metadata.TextureDimensionCube:
		return 6
	case metadata.TextureDimensionTex2DArray, metadata.TextureDimensionCubeArray:
		return d.Depth
	case metadata.TextureDimensionTex3D:
		return d.Depth
	}
	return 1
}

type TextureBackend interface {
	TextureCreate(desc TextureDesc) (Handle, error)
	TextureDestroy(h Handle) error
	TextureReinitialize(h Handle, width, height int, format metadata.GraphicsFormat, mipCount int) error
	// TextureWrite replaces one mip level of one slice.
	TextureWrite(h Handle, slice, mip int, data []byte) error
	TextureRead(h Handle, slice, mip int) ([]byte, error)
	TextureApply(h Handle, updateMipmaps bool) error
	TextureGenerateMips(h Handle) error
	TextureResolve(src, dst Handle) error
	// TextureReadPixels copies rect of the active render target into dst at (x, y).
	TextureReadPixels(dst Handle, rect math.RectInt, x, y, mip int) error
}

type CommandBackend interface {
	// Execute runs commands on the graphics queue before returning.
	Execute(name string, commands []Command) error
	// ExecuteAsync queues commands on a compute queue.
	ExecuteAsync(name string, commands []Command, queue metadata.ComputeQueueType) error
	ActiveRenderTarget() Handle
	FenceCreate(fenceType metadata.GraphicsFenceType, stages metadata.SynchronisationStageFlags) (Handle, error)
	FencePassed(h Handle) (bool, error)
	FenceRelease(h Handle) error
}

type MaterialBackend interface {
	MaterialCreate(shader string) (Handle, error)
	MaterialDestroy(h Handle) error
	MaterialSetProperty(h Handle, nameID int32, value any) error
	ComputeShaderCreate(name string, kernels []string) (Handle, error)
	ComputeShaderDestroy(h Handle) error
}

type RayTracingBackend interface {
	AccelerationStructureCreate() (Handle, error)
	AccelerationStructureAddInstance(h Handle, mesh Handle, transform math.Mat4, mask uint32) (int, error)
	AccelerationStructureRelease(h Handle) error
}

type DisplayBackend interface {
	WindowSize() (width, height int)
	CurrentResolution() metadata.Resolution
	Resolutions() []metadata.Resolution
	SetResolution(width, height int, mode metadata.FullScreenMode, refreshRate metadata.RefreshRate) error
	FullScreenMode() metadata.FullScreenMode
	DPI() float32
	Orientation() metadata.ScreenOrientation
	SetOrientation(o metadata.ScreenOrientation) error
	Brightness() float32
	SetBrightness(b float32)
}

/** @brief Snapshot of one display's HDR output state. */
type HDRDisplayState struct {
	Name                         string
	Available                    bool
	Active                       bool
	AutomaticHDRTonemapping      bool
	SupportFlags                 metadata.HDRDisplaySupportFlags
	DisplayColorGamut            metadata.ColorGamut
	GraphicsFormat               metadata.GraphicsFormat
	BitDepth                     metadata.HDRDisplayBitDepth
	MaxToneMapLuminance          int
	MinToneMapLuminance          int
	MaxFullFrameToneMapLuminance int
	PaperWhiteNits               float32
	ModeChangeRequested          bool
}

type HDRBackend interface {
	HDRDisplayCount() int
	HDRDisplay(index int) (HDRDisplayState, error)
	HDRRequestModeChange(index int, active bool) error
	HDRSetPaperWhite(index int, nits float32) error
	HDRSetAutomaticTonemapping(index int, enabled bool) error
}

type FrameTimingBackend interface {
	BeginFrame() error
	EndFrame() error
	// FrameTimings fills out with completed frames, newest first.
	FrameTimings(out []metadata.FrameTiming) int
	CPUTimerFrequency() uint64
	GPUTimerFrequency() uint64
	VSyncsPerSecond() float32
}

type ScalingBackend interface {
	ResizeBuffers(widthScale, heightScale float32) error
	ScaleFactors() (widthScale, heightScale float32)
}

type LightProbeBackend interface {
	LightProbePositions() []math.Vec3
	LightProbeCoefficients() []metadata.SphericalHarmonicsL2
	SetLightProbeCoefficients(coefficients []metadata.SphericalHarmonicsL2) error
	InterpolateLightProbe(position math.Vec3) (metadata.SphericalHarmonicsL2, math.Vec4, error)
}

type ReadbackBackend interface {
	// ReadbackRequest copies a region of a texture and calls done once,
	// from any goroutine, with the bytes or an error.
	ReadbackRequest(src Handle, mip int, region Region, format metadata.GraphicsFormat, done func(data []byte, err error)) error
}

// Region is a box within a texture mip level. Z and Depth address slices.
type Region struct {
	X, Y, Z              int
	Width, Height, Depth int
}

/** @brief Everything a platform layer implements to host the graphics API. */
type Backend interface {
	Capabilities
	MeshBackend
	TextureBackend
	CommandBackend
	MaterialBackend
	RayTracingBackend
	DisplayBackend
	HDRBackend
	FrameTimingBackend
	ScalingBackend
	LightProbeBackend
	ReadbackBackend
	Shutdown() error
}
