package texture

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const defaultPoolSize = 32

/**
 * @brief Recycles render textures by descriptor. Released textures stay
 * created in a free list until a request with an equal descriptor arrives
 * or the list outgrows its limit.
 */
type TemporaryPool struct {
	mutex   sync.Mutex
	backend Backend
	free    []*RenderTexture
	inUse   map[*RenderTexture]struct{}
	limit   int
}

func NewTemporaryPool(backend Backend, limit int) *TemporaryPool {
	return &TemporaryPool{
		backend: backend,
		inUse:   make(map[*RenderTexture]struct{}),
		limit:   limit,
	}
}

func (p *TemporaryPool) Get(desc metadata.RenderTextureDescriptor) (*RenderTexture, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for i, rt := range p.free {
		if rt.desc == desc && rt.IsCreated() {
			p.free = append(p.free[:i], p.free[i+1:]...)
			p.inUse[rt] = struct{}{}
			return rt, nil
		}
	}
	rt, err := NewRenderTexture(p.backend, desc)
	if err != nil {
		return nil, err
	}
	rt.Name = "TempBuffer"
	if err := rt.Create(); err != nil {
		return nil, err
	}
	p.inUse[rt] = struct{}{}
	return rt, nil
}

func (p *TemporaryPool) Release(rt *RenderTexture) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, ok := p.inUse[rt]; !ok {
		return core.InvalidArgument("render texture %q was not obtained from GetTemporary", rt.Name)
	}
	delete(p.inUse, rt)
	p.free = append(p.free, rt)
	for len(p.free) > p.limit {
		oldest := p.free[0]
		p.free = p.free[1:]
		if err := oldest.Destroy(); err != nil {
			core.LogWarn("failed to destroy pooled render texture: %s", err)
		}
	}
	return nil
}

// Len reports the number of textures in use and waiting in the free list.
func (p *TemporaryPool) Len() (inUse, free int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.inUse), len(p.free)
}

// Clear destroys every free texture.
func (p *TemporaryPool) Clear() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for _, rt := range p.free {
		_ = rt.Destroy()
	}
	p.free = nil
}
