package software

import (
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// ReadbackRequest validates the request now and copies the data on a worker.
func (b *Backend) ReadbackRequest(src native.Handle, mip int, region native.Region, format metadata.GraphicsFormat, done func([]byte, error)) error {
	if !b.Features().Has(native.FeatureAsyncGPUReadback) {
		return core.Unsupported("async GPU readback on %s", b.DeviceName())
	}
	t, err := b.texture(src)
	if err != nil {
		return err
	}
	b.mutex.Lock()
	err = checkRegion(t, mip, region, format)
	b.mutex.Unlock()
	if err != nil {
		return err
	}
	return b.jobs.Submit(JobTask{
		Name: "readback",
		Run: func() error {
			b.mutex.Lock()
			data, err := readRegion(t, mip, region, format)
			b.mutex.Unlock()
			done(data, err)
			return nil
		},
	})
}

func checkRegion(t *textureObject, mip int, r native.Region, format metadata.GraphicsFormat) error {
	if err := t.checkLevel(0, mip); err != nil {
		return core.InvalidArgument("%s", err)
	}
	w, h := metadata.MipSize(t.desc.Width, mip), metadata.MipSize(t.desc.Height, mip)
	if r.Width <= 0 || r.Height <= 0 || r.Depth <= 0 {
		return core.InvalidArgument("readback region %+v is empty", r)
	}
	if r.X < 0 || r.Y < 0 || r.Z < 0 || r.X+r.Width > w || r.Y+r.Height > h || r.Z+r.Depth > t.desc.Slices() {
		return core.InvalidArgument("readback region %+v outside %dx%dx%d", r, w, h, t.desc.Slices())
	}
	if format != t.desc.Format && (!metadata.CanConvertPixels(format) || !metadata.CanConvertPixels(t.desc.Format)) {
		return core.Unsupported("readback from %s to %s", t.desc.Format, format)
	}
	return nil
}

func readRegion(t *textureObject, mip int, r native.Region, format metadata.GraphicsFormat) ([]byte, error) {
	// The texture may have been reinitialized since the request was accepted.
	if err := checkRegion(t, mip, r, format); err != nil {
		return nil, err
	}
	w := metadata.MipSize(t.desc.Width, mip)
	sf := t.desc.Format
	sbs, dbs := sf.BlockSize(), format.BlockSize()
	out := make([]byte, r.Width*r.Height*r.Depth*dbs)
	o := 0
	for z := r.Z; z < r.Z+r.Depth; z++ {
		level := t.level(z, mip)
		for y := r.Y; y < r.Y+r.Height; y++ {
			row := level[(y*w+r.X)*sbs : (y*w+r.X+r.Width)*sbs]
			if sf == format {
				o += copy(out[o:], row)
				continue
			}
			for x := 0; x < r.Width; x++ {
				metadata.EncodeColor(format, metadata.DecodeColor(sf, row[x*sbs:]), out[o:])
				o += dbs
			}
		}
	}
	return out, nil
}
