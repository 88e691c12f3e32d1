package renderer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

/**
 * @brief One pending copy of texture data back to the CPU. It completes
 * exactly once, either with data or with an error.
 */
type AsyncGPUReadbackRequest struct {
	id     uuid.UUID
	format metadata.GraphicsFormat
	region native.Region

	once     sync.Once
	done     chan struct{}
	mutex    sync.Mutex
	data     []byte
	err      error
	callback func(*AsyncGPUReadbackRequest)
}

func (r *AsyncGPUReadbackRequest) ID() uuid.UUID {
	return r.id
}

func (r *AsyncGPUReadbackRequest) Width() int {
	return r.region.Width
}

func (r *AsyncGPUReadbackRequest) Height() int {
	return r.region.Height
}

// LayerCount is the number of slices the request covers.
func (r *AsyncGPUReadbackRequest) LayerCount() int {
	return r.region.Depth
}

func (r *AsyncGPUReadbackRequest) Format() metadata.GraphicsFormat {
	return r.format
}

// LayerDataSize is the byte size of one slice.
func (r *AsyncGPUReadbackRequest) LayerDataSize() int {
	return r.region.Width * r.region.Height * r.format.BlockSize()
}

func (r *AsyncGPUReadbackRequest) complete(data []byte, err error) {
	r.once.Do(func() {
		r.mutex.Lock()
		r.data, r.err = data, err
		r.mutex.Unlock()
		close(r.done)
		if r.callback != nil {
			r.callback(r)
		}
	})
}

// Done reports whether the request has completed, successfully or not.
func (r *AsyncGPUReadbackRequest) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *AsyncGPUReadbackRequest) HasError() bool {
	return r.Err() != nil
}

func (r *AsyncGPUReadbackRequest) Err() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.err
}

// GetData returns the bytes of every layer. It fails until the request is done.
func (r *AsyncGPUReadbackRequest) GetData() ([]byte, error) {
	if !r.Done() {
		return nil, core.InvalidOperation("readback %s is not done yet", r.id)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.data, nil
}

func (r *AsyncGPUReadbackRequest) GetLayerData(layer int) ([]byte, error) {
	data, err := r.GetData()
	if err != nil {
		return nil, err
	}
	if layer < 0 || layer >= r.LayerCount() {
		return nil, core.IndexOutOfRange("layer %d out of range [0, %d)", layer, r.LayerCount())
	}
	size := r.LayerDataSize()
	return data[layer*size : (layer+1)*size], nil
}

// WaitForCompletion blocks until the request is done or ctx ends.
func (r *AsyncGPUReadbackRequest) WaitForCompletion(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

type readbackSettings struct {
	region   *native.Region
	format   metadata.GraphicsFormat
	callback func(*AsyncGPUReadbackRequest)
}

type ReadbackOption func(*readbackSettings)

// WithRegion reads a box of the mip level instead of all of it.
func WithRegion(region native.Region) ReadbackOption {
	return func(s *readbackSettings) {
		s.region = &region
	}
}

// WithReadbackFormat converts the data to format. Default is the source format.
func WithReadbackFormat(format metadata.GraphicsFormat) ReadbackOption {
	return func(s *readbackSettings) {
		s.format = format
	}
}

// WithCallback runs fn on a backend worker once the request completes.
func WithCallback(fn func(*AsyncGPUReadbackRequest)) ReadbackOption {
	return func(s *readbackSettings) {
		s.callback = fn
	}
}

// AsyncGPUReadback issues readback requests and tracks the pending ones.
type AsyncGPUReadback struct {
	backend native.Backend

	mutex   sync.Mutex
	pending map[uuid.UUID]*AsyncGPUReadbackRequest
}

func newAsyncGPUReadback(backend native.Backend) *AsyncGPUReadback {
	return &AsyncGPUReadback{backend: backend, pending: make(map[uuid.UUID]*AsyncGPUReadbackRequest)}
}

/**
 * @brief Starts copying one mip level of src to the CPU. Validation errors
 * are returned here; copy errors arrive through the request.
 */
func (a *AsyncGPUReadback) Request(src Texture, mip int, opts ...ReadbackOption) (*AsyncGPUReadbackRequest, error) {
	if !a.backend.Features().Has(native.FeatureAsyncGPUReadback) {
		return nil, core.Unsupported("async GPU readback on %s", a.backend.DeviceName())
	}
	handle, err := textureHandle(src, "readback source")
	if err != nil {
		return nil, err
	}
	if mip < 0 || mip >= src.MipCount() {
		return nil, core.IndexOutOfRange("mip %d out of range [0, %d)", mip, src.MipCount())
	}
	settings := readbackSettings{format: src.GraphicsFormat()}
	for _, opt := range opts {
		opt(&settings)
	}
	if !native.IsFormatSupported(a.backend, settings.format, metadata.UsageReadPixels) {
		return nil, core.Unsupported("readback into %s", settings.format)
	}
	region := native.Region{Width: max(1, src.Width()>>mip), Height: max(1, src.Height()>>mip), Depth: 1}
	if settings.region != nil {
		region = *settings.region
	}
	if region.Width <= 0 || region.Height <= 0 || region.Depth <= 0 {
		return nil, core.InvalidArgument("readback region %dx%dx%d must be positive", region.Width, region.Height, region.Depth)
	}

	req := &AsyncGPUReadbackRequest{
		id:       uuid.New(),
		format:   settings.format,
		region:   region,
		done:     make(chan struct{}),
		callback: settings.callback,
	}
	a.mutex.Lock()
	a.pending[req.id] = req
	a.mutex.Unlock()

	err = a.backend.ReadbackRequest(handle, mip, region, settings.format, func(data []byte, err error) {
		if err != nil {
			err = core.NativeFailure("AsyncGPUReadback", err)
		}
		a.forget(req.id)
		req.complete(data, err)
	})
	if err != nil {
		a.forget(req.id)
		if !core.Classified(err) {
			err = core.NativeFailure("ReadbackRequest", err)
		}
		return nil, err
	}
	core.LogDebug("readback %s queued: %dx%dx%d %s", req.id, region.Width, region.Height, region.Depth, settings.format)
	return req, nil
}

func (a *AsyncGPUReadback) forget(id uuid.UUID) {
	a.mutex.Lock()
	delete(a.pending, id)
	a.mutex.Unlock()
}

// Pending is the number of requests that have not completed.
func (a *AsyncGPUReadback) Pending() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return len(a.pending)
}

// WaitAllRequests blocks until every request issued so far is done or ctx ends.
func (a *AsyncGPUReadback) WaitAllRequests(ctx context.Context) error {
	a.mutex.Lock()
	reqs := make([]*AsyncGPUReadbackRequest, 0, len(a.pending))
	for _, r := range a.pending {
		reqs = append(reqs, r)
	}
	a.mutex.Unlock()
	for _, r := range reqs {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// cancelPending fails every outstanding request.
func (a *AsyncGPUReadback) cancelPending() {
	a.mutex.Lock()
	reqs := a.pending
	a.pending = make(map[uuid.UUID]*AsyncGPUReadbackRequest)
	a.mutex.Unlock()
	for _, r := range reqs {
		r.complete(nil, core.InvalidOperation("renderer shut down before readback %s completed", r.id))
	}
}
