package material

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Backend is the native surface materials and compute shaders need.
type Backend interface {
	native.Capabilities
	native.MaterialBackend
}

// Texture is anything bound to a texture slot by its native handle.
type Texture interface {
	Handle() native.Handle
}

// TextureValue is the stored form of a texture property.
func TextureValue(t Texture) (metadata.RenderTargetIdentifier, error) {
	if t == nil || !t.Handle().IsValid() {
		return metadata.RenderTargetIdentifier{}, core.InvalidArgument("texture is nil or was never created")
	}
	return metadata.NewRenderTargetFromTexture(uint32(t.Handle())), nil
}

// checkValue accepts the property value kinds a shader can bind.
func checkValue(value any) error {
	switch value.(type) {
	case float32, int32, math.Vec4, math.Mat4, metadata.RenderTargetIdentifier:
		return nil
	}
	return core.InvalidArgument("unsupported shader property value %T", value)
}

/** @brief A shader plus the property values it is drawn with. */
type Material struct {
	Name string

	backend   Backend
	handle    native.Handle
	shader    string
	props     map[int32]any
	destroyed bool
}

func New(backend Backend, shader string) (*Material, error) {
	if backend == nil {
		return nil, core.InvalidArgument("material backend is nil")
	}
	if shader == "" {
		return nil, core.InvalidArgument("material needs a shader name")
	}
	h, err := backend.MaterialCreate(shader)
	if err != nil {
		return nil, core.NativeFailure("MaterialCreate", err)
	}
	return &Material{
		Name:    shader,
		backend: backend,
		handle:  h,
		shader:  shader,
		props:   make(map[int32]any),
	}, nil
}

func (m *Material) Handle() native.Handle {
	if m == nil {
		return native.InvalidHandle
	}
	return m.handle
}

func (m *Material) Shader() string {
	return m.shader
}

func (m *Material) set(nameID int32, value any) error {
	if m.destroyed {
		return core.InvalidOperation("material %q has been destroyed", m.Name)
	}
	if err := checkValue(value); err != nil {
		return err
	}
	if err := m.backend.MaterialSetProperty(m.handle, nameID, value); err != nil {
		return core.NativeFailure("MaterialSetProperty", err)
	}
	m.props[nameID] = value
	return nil
}

func (m *Material) SetFloat(name string, v float32) error {
	return m.set(PropertyToID(name), v)
}

func (m *Material) SetFloatID(nameID int32, v float32) error {
	return m.set(nameID, v)
}

func (m *Material) SetInt(name string, v int32) error {
	return m.set(PropertyToID(name), v)
}

func (m *Material) SetVector(name string, v math.Vec4) error {
	return m.set(PropertyToID(name), v)
}

func (m *Material) SetVectorID(nameID int32, v math.Vec4) error {
	return m.set(nameID, v)
}

// SetColor stores c as a vector property.
func (m *Material) SetColor(name string, c math.Color) error {
	return m.set(PropertyToID(name), math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A})
}

func (m *Material) SetMatrix(name string, v math.Mat4) error {
	return m.set(PropertyToID(name), v)
}

func (m *Material) SetTexture(name string, t Texture) error {
	return m.SetTextureID(PropertyToID(name), t)
}

func (m *Material) SetTextureID(nameID int32, t Texture) error {
	v, err := TextureValue(t)
	if err != nil {
		return err
	}
	return m.set(nameID, v)
}

func (m *Material) HasProperty(name string) bool {
	_, ok := m.props[PropertyToID(name)]
	return ok
}

func (m *Material) GetFloat(name string) (float32, bool) {
	v, ok := m.props[PropertyToID(name)].(float32)
	return v, ok
}

func (m *Material) GetInt(name string) (int32, bool) {
	v, ok := m.props[PropertyToID(name)].(int32)
	return v, ok
}

func (m *Material) GetVector(name string) (math.Vec4, bool) {
	v, ok := m.props[PropertyToID(name)].(math.Vec4)
	return v, ok
}

func (m *Material) GetMatrix(name string) (math.Mat4, bool) {
	v, ok := m.props[PropertyToID(name)].(math.Mat4)
	return v, ok
}

// GetTexture returns the native handle bound to name.
func (m *Material) GetTexture(name string) (native.Handle, bool) {
	v, ok := m.props[PropertyToID(name)].(metadata.RenderTargetIdentifier)
	if !ok {
		return native.InvalidHandle, false
	}
	return native.Handle(v.InstanceID), true
}

// Destroy releases the native material. Calling it again does nothing.
func (m *Material) Destroy() error {
	if m == nil || m.destroyed {
		return nil
	}
	m.destroyed = true
	if err := m.backend.MaterialDestroy(m.handle); err != nil {
		return core.NativeFailure("MaterialDestroy", err)
	}
	return nil
}

func (m *Material) IsDestroyed() bool {
	return m.destroyed
}
