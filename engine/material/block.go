package material

import (
	"maps"

	"github.com/spaghettifunk/lumen/engine/math"
)

// PropertyBlock holds per-draw overrides applied on top of a material.
// The zero value is ready to use.
type PropertyBlock struct {
	values map[int32]any
}

func (b *PropertyBlock) set(nameID int32, value any) error {
	if err := checkValue(value); err != nil {
		return err
	}
	if b.values == nil {
		b.values = make(map[int32]any)
	}
	b.values[nameID] = value
	return nil
}

func (b *PropertyBlock) SetFloat(name string, v float32) error {
	return b.set(PropertyToID(name), v)
}

func (b *PropertyBlock) SetInt(name string, v int32) error {
	return b.set(PropertyToID(name), v)
}

func (b *PropertyBlock) SetVector(name string, v math.Vec4) error {
	return b.set(PropertyToID(name), v)
}

func (b *PropertyBlock) SetColor(name string, c math.Color) error {
	return b.set(PropertyToID(name), math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A})
}

func (b *PropertyBlock) SetMatrix(name string, v math.Mat4) error {
	return b.set(PropertyToID(name), v)
}

func (b *PropertyBlock) SetTexture(name string, t Texture) error {
	v, err := TextureValue(t)
	if err != nil {
		return err
	}
	return b.set(PropertyToID(name), v)
}

func (b *PropertyBlock) Get(name string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.values[PropertyToID(name)]
	return v, ok
}

func (b *PropertyBlock) IsEmpty() bool {
	return b == nil || len(b.values) == 0
}

func (b *PropertyBlock) Clear() {
	clear(b.values)
}

// Snapshot copies the overrides for a recorded command. A nil or empty
// block yields nil.
func (b *PropertyBlock) Snapshot() map[int32]any {
	if b.IsEmpty() {
		return nil
	}
	return maps.Clone(b.values)
}

