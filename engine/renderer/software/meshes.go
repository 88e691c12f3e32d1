package software

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

type meshObject struct {
	buffers *native.MeshBuffers
}

func (b *Backend) MeshCreate() (native.Handle, error) {
	id := b.meshes.Acquire(&meshObject{buffers: native.NewMeshBuffers()})
	return toHandle(id), nil
}

func (b *Backend) MeshDestroy(h native.Handle) error {
	id, err := fromHandle(h)
	if err != nil {
		return err
	}
	return b.meshes.Release(id)
}

func (b *Backend) mesh(h native.Handle) (*meshObject, error) {
	id, err := fromHandle(h)
	if err != nil {
		return nil, err
	}
	m, ok := b.meshes.Get(id)
	if !ok {
		return nil, fmt.Errorf("mesh %d does not exist", h)
	}
	return m, nil
}

func (b *Backend) MeshBuffers(h native.Handle) (*native.MeshBuffers, error) {
	m, err := b.mesh(h)
	if err != nil {
		return nil, err
	}
	return m.buffers, nil
}

// MeshUpload counts the upload and drops CPU readability when requested.
func (b *Backend) MeshUpload(h native.Handle, markNoLongerReadable bool) error {
	m, err := b.mesh(h)
	if err != nil {
		return err
	}
	m.buffers.Uploads++
	if markNoLongerReadable {
		m.buffers.Readable = false
	}
	return nil
}
