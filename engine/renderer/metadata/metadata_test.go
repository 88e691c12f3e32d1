package metadata

import (
	"testing"

	"github.com/spaghettifunk/lumen/engine/math"
)

func TestRenderTextureDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *RenderTextureDescriptor)
		wantErr bool
	}{
		{"valid default", func(d *RenderTextureDescriptor) {}, false},
		{"zero width", func(d *RenderTextureDescriptor) { d.Width = 0 }, true},
		{"negative height", func(d *RenderTextureDescriptor) { d.Height = -1 }, true},
		{"msaa 3", func(d *RenderTextureDescriptor) { d.MSAASamples = 3 }, true},
		{"msaa 4", func(d *RenderTextureDescriptor) { d.MSAASamples = 4 }, false},
		{"msaa 8", func(d *RenderTextureDescriptor) { d.MSAASamples = 8 }, false},
		{"msaa 16", func(d *RenderTextureDescriptor) { d.MSAASamples = 16 }, true},
		{"zero volume depth", func(d *RenderTextureDescriptor) { d.VolumeDepth = 0 }, true},
		{"no color no depth", func(d *RenderTextureDescriptor) {
			d.GraphicsFormat = FormatNone
			d.DepthStencilFormat = FormatNone
		}, true},
		{"depth only", func(d *RenderTextureDescriptor) { d.GraphicsFormat = FormatNone }, false},
		{"color depth format", func(d *RenderTextureDescriptor) { d.GraphicsFormat = FormatD32_SFloat }, true},
		{"depth is color format", func(d *RenderTextureDescriptor) { d.DepthStencilFormat = FormatR8_UNorm }, true},
		{"cube not square", func(d *RenderTextureDescriptor) {
			d.Dimension = TextureDimensionCube
			d.Height = 32
		}, true},
		{"cube array depth", func(d *RenderTextureDescriptor) {
			d.Dimension = TextureDimensionCubeArray
			d.VolumeDepth = 7
		}, true},
		{"multisampled 3d", func(d *RenderTextureDescriptor) {
			d.Dimension = TextureDimensionTex3D
			d.MSAASamples = 2
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewRenderTextureDescriptor(64, 64, FormatR8G8B8A8_UNorm, FormatD24_UNorm_S8_UInt)
			tt.mutate(&d)
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderTextureDescriptorFlags(t *testing.T) {
	d := NewRenderTextureDescriptor(16, 16, FormatR8G8B8A8_SRGB, FormatNone)
	if !d.AutoGenerateMips() || d.UseMipMap() {
		t.Fatalf("unexpected default flags %b", d.Flags)
	}
	d.SetUseMipMap(true)
	d.SetEnableRandomWrite(true)
	if !d.UseMipMap() || !d.EnableRandomWrite() {
		t.Fatal("flag setters did not stick")
	}
	if got := d.ResolvedMipCount(); got != 5 {
		t.Fatalf("ResolvedMipCount() = %d, want 5", got)
	}
	if err := d.SetDepthBufferBits(24); err != nil {
		t.Fatal(err)
	}
	if d.DepthStencilFormat != FormatD24_UNorm_S8_UInt || d.DepthBufferBits() != 24 {
		t.Fatalf("depth format = %s", d.DepthStencilFormat)
	}
	if err := d.SetDepthBufferBits(12); err == nil {
		t.Fatal("expected error for 12 depth bits")
	}
}

func TestLegacyDescriptor(t *testing.T) {
	d, err := NewRenderTextureDescriptorLegacy(32, 32, RenderTextureFormatDefault, 16, RenderTextureReadWriteSRGB)
	if err != nil {
		t.Fatal(err)
	}
	if d.GraphicsFormat != FormatR8G8B8A8_SRGB || !d.SRGB() {
		t.Fatalf("color = %s srgb = %v", d.GraphicsFormat, d.SRGB())
	}
	if d.DepthStencilFormat != FormatD16_UNorm {
		t.Fatalf("depth = %s", d.DepthStencilFormat)
	}
	d, err = NewRenderTextureDescriptorLegacy(32, 32, RenderTextureFormatDepth, 0, RenderTextureReadWriteLinear)
	if err != nil {
		t.Fatal(err)
	}
	if d.GraphicsFormat != FormatNone || d.DepthStencilFormat == FormatNone {
		t.Fatalf("depth-only descriptor = %+v", d)
	}
	if _, err := NewRenderTextureDescriptorLegacy(32, 32, RenderTextureFormatRGB565, 0, RenderTextureReadWriteLinear); err == nil {
		t.Fatal("expected unmapped legacy format to fail")
	}
}

func TestTextureFormatMapping(t *testing.T) {
	tests := []struct {
		format TextureFormat
		srgb   bool
		want   GraphicsFormat
	}{
		{TextureFormatRGBA32, true, FormatR8G8B8A8_SRGB},
		{TextureFormatRGBA32, false, FormatR8G8B8A8_UNorm},
		{TextureFormatRGBAFloat, true, FormatR32G32B32A32_SFloat},
		{TextureFormatBGRA32, false, FormatB8G8R8A8_UNorm},
		{TextureFormatDXT1, false, FormatNone},
	}
	for _, tt := range tests {
		if got := tt.format.GraphicsFormat(tt.srgb); got != tt.want {
			t.Errorf("%s.GraphicsFormat(%v) = %s, want %s", tt.format, tt.srgb, got, tt.want)
		}
	}
	if tf, ok := TextureFormatFor(FormatR8G8B8A8_SRGB); !ok || tf != TextureFormatRGBA32 {
		t.Errorf("TextureFormatFor = %s, %v", tf, ok)
	}
	if f, ok := ParseGraphicsFormat("r16g16b16a16_sfloat"); !ok || f != FormatR16G16B16A16_SFloat {
		t.Errorf("ParseGraphicsFormat = %s, %v", f, ok)
	}
}

func TestPixelCodecRoundTrip(t *testing.T) {
	c := math.NewColor(0.25, 0.5, 0.75, 1)
	for _, f := range []GraphicsFormat{
		FormatR8G8B8A8_UNorm, FormatB8G8R8A8_SRGB, FormatR16G16B16A16_UNorm,
		FormatR16G16B16A16_SFloat, FormatR32G32B32A32_SFloat,
	} {
		buf := make([]byte, f.BlockSize())
		EncodeColor(f, c, buf)
		got := DecodeColor(f, buf)
		if !got.Compare(c, 1.0/255) {
			t.Errorf("%s: decoded %+v, want %+v", f, got, c)
		}
	}
	buf := make([]byte, 1)
	EncodeColor(FormatR8_UNorm, c, buf)
	if got := DecodeColor(FormatR8_UNorm, buf); got.G != 0 || got.A != 1 {
		t.Errorf("single channel decode = %+v", got)
	}
	if CanConvertPixels(FormatR32_SInt) || CanConvertPixels(FormatD16_UNorm) {
		t.Error("integer and depth formats must not convert pixels")
	}
}

func TestComputeVertexLayout(t *testing.T) {
	layout, err := ComputeVertexLayout([]VertexAttributeDescriptor{
		NewVertexAttributeDescriptor(VertexAttributeTexCoord0, VertexAttributeFormatFloat16, 2, 0),
		NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 3, 0),
		NewVertexAttributeDescriptor(VertexAttributeNormal, VertexAttributeFormatFloat32, 3, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if layout.Strides[0] != 16 || layout.Strides[1] != 12 {
		t.Fatalf("strides = %v", layout.Strides)
	}
	uv, ok := layout.Find(VertexAttributeTexCoord0)
	if !ok || uv.Offset != 12 {
		t.Fatalf("uv placement = %+v", uv)
	}

	bad := [][]VertexAttributeDescriptor{
		{NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat16, 3, 0)},
		{NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 5, 0)},
		{NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 3, 4)},
		{NewVertexAttributeDescriptor(VertexAttributeNormal, VertexAttributeFormatFloat32, 3, 0)},
		{
			NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 3, 0),
			NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 3, 1),
		},
		{
			NewVertexAttributeDescriptor(VertexAttributePosition, VertexAttributeFormatFloat32, 3, 0),
			NewVertexAttributeDescriptor(VertexAttributeBlendIndices, VertexAttributeFormatFloat32, 4, 0),
		},
	}
	for i, attrs := range bad {
		if _, err := ComputeVertexLayout(attrs); err == nil {
			t.Errorf("case %d: expected layout error", i)
		}
	}
}

func TestVertexCodec(t *testing.T) {
	buf := make([]byte, 4)
	for _, tt := range []struct {
		f   VertexAttributeFormat
		in  float32
		out float32
	}{
		{VertexAttributeFormatFloat32, 1.5, 1.5},
		{VertexAttributeFormatFloat16, -2.25, -2.25},
		{VertexAttributeFormatUNorm8, 2, 1},
		{VertexAttributeFormatSNorm16, -1, -1},
		{VertexAttributeFormatUInt16, 513, 513},
		{VertexAttributeFormatSInt32, -7, -7},
	} {
		EncodeComponent(tt.f, tt.in, buf)
		if got := DecodeComponent(tt.f, buf); got != tt.out {
			t.Errorf("%s: got %v, want %v", tt.f, got, tt.out)
		}
	}
}

func TestRenderTargetBindingValidate(t *testing.T) {
	rt := NewRenderTargetFromTexture(3)
	depth := NewRenderTargetFromBuiltin(BuiltinDepth)
	ok := NewRenderTargetBinding(rt, depth)
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mismatched := ok
	mismatched.ColorLoadActions = nil
	if err := mismatched.Validate(); err == nil {
		t.Error("expected load action count mismatch to fail")
	}

	mismatched = ok
	mismatched.ColorStoreActions = []RenderBufferStoreAction{StoreActionStore, StoreActionStore}
	if err := mismatched.Validate(); err == nil {
		t.Error("expected store action count mismatch to fail")
	}

	if err := (RenderTargetBinding{}).Validate(); err == nil {
		t.Error("expected empty binding to fail")
	}

	colors := make([]RenderTargetIdentifier, MaxRenderTargets+1)
	tooMany := NewRenderTargetBindingMRT(colors, LoadActionLoad, StoreActionStore, depth, LoadActionLoad, StoreActionStore)
	if err := tooMany.Validate(); err == nil {
		t.Error("expected too many targets to fail")
	}
}

func TestMeshTopology(t *testing.T) {
	if MeshTopologyTriangles.IndicesPerPrimitive() != 3 || MeshTopologyQuads.IndicesPerPrimitive() != 4 ||
		MeshTopologyLines.IndicesPerPrimitive() != 2 || MeshTopologyPoints.IndicesPerPrimitive() != 1 {
		t.Fatal("unexpected primitive sizes")
	}
	if int32(MeshTopologyTriangleStrip) != 1 || int32(MeshTopologyPoints) != 5 {
		t.Fatal("topology values drifted from the native enum")
	}
}

func TestSphericalHarmonicsAmbient(t *testing.T) {
	var sh SphericalHarmonicsL2
	sh.AddAmbientLight(math.NewColor(1, 0.5, 0, 1))
	got := sh.Evaluate(math.NewVec3(0, 1, 0))
	if got.R <= 0 || got.G <= 0 || got.B != 0 {
		t.Fatalf("Evaluate = %+v", got)
	}
	doubled := sh.Add(sh)
	if doubled.Coefficients[0][0] != 2 {
		t.Fatalf("Add = %v", doubled.Coefficients[0][0])
	}
}
