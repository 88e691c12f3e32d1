package metadata

import (
	"errors"
	"fmt"
)

type BuiltinRenderTextureType int32

const (
	BuiltinPropertyName       BuiltinRenderTextureType = -4
	BuiltinBufferPtr          BuiltinRenderTextureType = -3
	BuiltinRenderTexture      BuiltinRenderTextureType = -2
	BuiltinBindableTexture    BuiltinRenderTextureType = -1
	BuiltinNone               BuiltinRenderTextureType = 0
	BuiltinCurrentActive      BuiltinRenderTextureType = 1
	BuiltinCameraTarget       BuiltinRenderTextureType = 2
	BuiltinDepth              BuiltinRenderTextureType = 3
	BuiltinDepthNormals       BuiltinRenderTextureType = 4
	BuiltinResolvedDepth      BuiltinRenderTextureType = 5
	BuiltinPrepassNormalsSpec BuiltinRenderTextureType = 7
	BuiltinPrepassLight       BuiltinRenderTextureType = 8
	BuiltinPrepassLightSpec   BuiltinRenderTextureType = 9
	BuiltinGBuffer0           BuiltinRenderTextureType = 10
	BuiltinGBuffer1           BuiltinRenderTextureType = 11
	BuiltinGBuffer2           BuiltinRenderTextureType = 12
	BuiltinGBuffer3           BuiltinRenderTextureType = 13
	BuiltinReflections        BuiltinRenderTextureType = 14
	BuiltinMotionVectors      BuiltinRenderTextureType = 15
	BuiltinGBuffer4           BuiltinRenderTextureType = 16
	BuiltinGBuffer5           BuiltinRenderTextureType = 17
	BuiltinGBuffer6           BuiltinRenderTextureType = 18
	BuiltinGBuffer7           BuiltinRenderTextureType = 19
)

// AllDepthSlices binds every slice of an array or volume target.
const AllDepthSlices = -1

// MaxRenderTargets is the number of simultaneous color attachments.
const MaxRenderTargets = 8

/**
 * @brief Names a render target: a builtin, a shader property id, a texture
 * handle or a native buffer, plus the mip, face and slice to bind.
 */
type RenderTargetIdentifier struct {
	Type          BuiltinRenderTextureType
	NameID        int32
	InstanceID    uint32
	BufferPointer uintptr
	MipLevel      int32
	CubeFace      CubemapFace
	DepthSlice    int32
}

func NewRenderTargetFromBuiltin(t BuiltinRenderTextureType) RenderTargetIdentifier {
	return RenderTargetIdentifier{Type: t, CubeFace: CubemapFaceUnknown}
}

// NewRenderTargetFromNameID identifies a temporary or global texture by property id.
func NewRenderTargetFromNameID(nameID int32) RenderTargetIdentifier {
	return RenderTargetIdentifier{Type: BuiltinPropertyName, NameID: nameID, CubeFace: CubemapFaceUnknown}
}

// NewRenderTargetFromTexture identifies a texture by its native handle.
func NewRenderTargetFromTexture(handle uint32) RenderTargetIdentifier {
	return RenderTargetIdentifier{Type: BuiltinRenderTexture, InstanceID: handle, CubeFace: CubemapFaceUnknown}
}

func (r RenderTargetIdentifier) WithMip(mip int) RenderTargetIdentifier {
	r.MipLevel = int32(mip)
	return r
}

func (r RenderTargetIdentifier) WithFace(face CubemapFace) RenderTargetIdentifier {
	r.CubeFace = face
	return r
}

func (r RenderTargetIdentifier) WithSlice(slice int) RenderTargetIdentifier {
	r.DepthSlice = int32(slice)
	return r
}

func (r RenderTargetIdentifier) IsNone() bool {
	return r.Type == BuiltinNone && r.InstanceID == 0 && r.NameID == 0 && r.BufferPointer == 0
}

func (r RenderTargetIdentifier) String() string {
	switch r.Type {
	case BuiltinPropertyName:
		return fmt.Sprintf("Type %d NameID %d mip %d face %d slice %d", r.Type, r.NameID, r.MipLevel, r.CubeFace, r.DepthSlice)
	case BuiltinRenderTexture, BuiltinBindableTexture:
		return fmt.Sprintf("Type %d InstanceID %d mip %d face %d slice %d", r.Type, r.InstanceID, r.MipLevel, r.CubeFace, r.DepthSlice)
	}
	return fmt.Sprintf("Type %d", r.Type)
}

type RenderBufferLoadAction int32

const (
	LoadActionLoad     RenderBufferLoadAction = 0
	LoadActionClear    RenderBufferLoadAction = 1
	LoadActionDontCare RenderBufferLoadAction = 2
)

type RenderBufferStoreAction int32

const (
	StoreActionStore           RenderBufferStoreAction = 0
	StoreActionResolve         RenderBufferStoreAction = 1
	StoreActionStoreAndResolve RenderBufferStoreAction = 2
	StoreActionDontCare        RenderBufferStoreAction = 3
)

type RenderTargetFlags int32

const (
	RenderTargetFlagsNone                 RenderTargetFlags = 0
	RenderTargetFlagsReadOnlyDepth        RenderTargetFlags = 1
	RenderTargetFlagsReadOnlyStencil      RenderTargetFlags = 2
	RenderTargetFlagsReadOnlyDepthStencil RenderTargetFlags = 3
)

// RTClearFlags selects which buffers ClearRenderTarget touches.
type RTClearFlags int32

const (
	RTClearNone    RTClearFlags = 0
	RTClearColor   RTClearFlags = 1
	RTClearDepth   RTClearFlags = 2
	RTClearStencil RTClearFlags = 4
	RTClearAll     RTClearFlags = 7
)

/** @brief Color and depth attachments with their load and store actions. */
type RenderTargetBinding struct {
	ColorRenderTargets []RenderTargetIdentifier
	DepthRenderTarget  RenderTargetIdentifier
	ColorLoadActions   []RenderBufferLoadAction
	ColorStoreActions  []RenderBufferStoreAction
	DepthLoadAction    RenderBufferLoadAction
	DepthStoreAction   RenderBufferStoreAction
	Flags              RenderTargetFlags
}

// NewRenderTargetBinding binds one color target and a depth target with Load/Store actions.
func NewRenderTargetBinding(color, depth RenderTargetIdentifier) RenderTargetBinding {
	return RenderTargetBinding{
		ColorRenderTargets: []RenderTargetIdentifier{color},
		DepthRenderTarget:  depth,
		ColorLoadActions:   []RenderBufferLoadAction{LoadActionLoad},
		ColorStoreActions:  []RenderBufferStoreAction{StoreActionStore},
		DepthLoadAction:    LoadActionLoad,
		DepthStoreAction:   StoreActionStore,
	}
}

// NewRenderTargetBindingMRT binds several color targets sharing the same actions.
func NewRenderTargetBindingMRT(colors []RenderTargetIdentifier, load RenderBufferLoadAction, store RenderBufferStoreAction, depth RenderTargetIdentifier, depthLoad RenderBufferLoadAction, depthStore RenderBufferStoreAction) RenderTargetBinding {
	b := RenderTargetBinding{
		ColorRenderTargets: append([]RenderTargetIdentifier(nil), colors...),
		DepthRenderTarget:  depth,
		ColorLoadActions:   make([]RenderBufferLoadAction, len(colors)),
		ColorStoreActions:  make([]RenderBufferStoreAction, len(colors)),
		DepthLoadAction:    depthLoad,
		DepthStoreAction:   depthStore,
	}
	for i := range colors {
		b.ColorLoadActions[i] = load
		b.ColorStoreActions[i] = store
	}
	return b
}

// Validate checks attachment counts and that action arrays line up with the targets.
func (b RenderTargetBinding) Validate() error {
	n := len(b.ColorRenderTargets)
	if n == 0 {
		return errors.New("no color render targets given")
	}
	if n > MaxRenderTargets {
		return fmt.Errorf("at most %d color render targets can be bound, got %d", MaxRenderTargets, n)
	}
	if len(b.ColorLoadActions) != n {
		return fmt.Errorf("color load actions and color render targets must have the same number of elements (%d != %d)", len(b.ColorLoadActions), n)
	}
	if len(b.ColorStoreActions) != n {
		return fmt.Errorf("color store actions and color render targets must have the same number of elements (%d != %d)", len(b.ColorStoreActions), n)
	}
	for _, a := range b.ColorLoadActions {
		if a == LoadActionClear {
			return errors.New("color load action Clear is not supported when binding render targets")
		}
	}
	if b.DepthLoadAction == LoadActionClear {
		return errors.New("depth load action Clear is not supported when binding render targets")
	}
	return nil
}

/**
 * @brief Immediate-mode render target setup used by Graphics.SetRenderTargetSetup.
 * Color holds texture handles, Depth one handle or zero.
 */
type RenderTargetSetup struct {
	Color      []uint32
	Depth      uint32
	MipLevel   int
	CubeFace   CubemapFace
	DepthSlice int
	ColorLoad  []RenderBufferLoadAction
	ColorStore []RenderBufferStoreAction
	DepthLoad  RenderBufferLoadAction
	DepthStore RenderBufferStoreAction
}

func (s RenderTargetSetup) Validate() error {
	n := len(s.Color)
	if n == 0 {
		return errors.New("no color buffers in render target setup")
	}
	if n > MaxRenderTargets {
		return fmt.Errorf("at most %d color buffers can be bound, got %d", MaxRenderTargets, n)
	}
	if len(s.ColorLoad) != n {
		return fmt.Errorf("color load actions must match color buffer count (%d != %d)", len(s.ColorLoad), n)
	}
	if len(s.ColorStore) != n {
		return fmt.Errorf("color store actions must match color buffer count (%d != %d)", len(s.ColorStore), n)
	}
	if s.MipLevel < 0 {
		return fmt.Errorf("mip level must be non-negative, got %d", s.MipLevel)
	}
	if s.CubeFace != CubemapFaceUnknown && !s.CubeFace.IsValid() {
		return fmt.Errorf("invalid cubemap face %d", s.CubeFace)
	}
	return nil
}
