package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/software"
)

const quadOBJ = `# quad plus a triangle
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl brick
f 1/1 2/2 3/3 4/4
usemtl glass
f -4/1 -2/3 -1/4
`

const brickMat = `name = "brick"
shader = "Unlit/Texture"
linear_textures = ["_BumpMap"]

[colors]
_Color = [1.0, 0.5, 0.25, 1.0]

[floats]
_Glossiness = 0.3

[textures]
_MainTex = "../textures/stripes.png"
_BumpMap = "../textures/stripes.png"
`

// stripesPNG is 4x2: a red row above a blue one.
func stripesPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
		img.Set(x, 1, color.NRGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, root, name string, data []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "textures/stripes.png", stripesPNG(t))
	writeFile(t, root, "materials/brick.mat", []byte(brickMat))
	writeFile(t, root, "models/quad.obj", []byte(quadOBJ))
	writeFile(t, root, "README.txt", []byte("not an asset"))

	b, err := software.New(config.Default())
	if err != nil {
		t.Fatalf("software.New() = %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	am, err := NewManager(b, root)
	if err != nil {
		t.Fatalf("NewManager() = %v", err)
	}
	t.Cleanup(func() { _ = am.Close() })
	return am
}

func TestManagerIndex(t *testing.T) {
	am := newManager(t)

	all := am.List(KindNone)
	want := []string{"materials/brick.mat", "models/quad.obj", "textures/stripes.png"}
	if len(all) != len(want) {
		t.Fatalf("List() = %v, want %v", all, want)
	}
	for i, info := range all {
		if info.Name != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, info.Name, want[i])
		}
	}
	if images := am.List(KindImage); len(images) != 1 || images[0].Kind != KindImage {
		t.Errorf("List(KindImage) = %v", images)
	}
	if _, err := am.Lookup("README.txt"); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Lookup(README.txt) = %v, want ErrInvalidArgument", err)
	}
}

func TestNewManagerErrors(t *testing.T) {
	b, err := software.New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	file := filepath.Join(t.TempDir(), "file.png")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(b, file); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("NewManager(file) = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewManager(nil, t.TempDir()); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("NewManager(nil) = %v, want ErrInvalidArgument", err)
	}
	if _, err := NewManager(b, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("NewManager(missing) succeeded")
	}
}

func TestLoadTexture(t *testing.T) {
	am := newManager(t)

	tex, err := am.LoadTexture("textures/stripes.png", Linear(), Readable())
	if err != nil {
		t.Fatalf("LoadTexture() = %v", err)
	}
	defer tex.Destroy()
	if tex.Name != "stripes" || tex.Width() != 4 || tex.Height() != 2 {
		t.Fatalf("texture %q is %dx%d", tex.Name, tex.Width(), tex.Height())
	}
	if tex.MipCount() < 2 {
		t.Errorf("MipCount() = %d, want a mip chain", tex.MipCount())
	}
	pixels, err := tex.GetPixels32(0)
	if err != nil {
		t.Fatalf("GetPixels32() = %v", err)
	}
	// Row 0 is the bottom of the image.
	if got, want := pixels[0], (math.Color32{B: 255, A: 255}); got != want {
		t.Errorf("bottom row = %v, want %v", got, want)
	}
	if got, want := pixels[4], (math.Color32{R: 255, A: 255}); got != want {
		t.Errorf("top row = %v, want %v", got, want)
	}

	sealed, err := am.LoadTexture("textures/stripes.png")
	if err != nil {
		t.Fatalf("LoadTexture() = %v", err)
	}
	defer sealed.Destroy()
	if sealed.IsReadable() {
		t.Error("texture loaded without Readable() is readable")
	}
}

func TestLoadTextureErrors(t *testing.T) {
	am := newManager(t)
	writeFile(t, am.Root(), "textures/broken.png", []byte("not a png"))
	if err := am.Rescan(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		asset string
	}{
		{"missing", "textures/missing.png"},
		{"wrong kind", "models/quad.obj"},
		{"undecodable", "textures/broken.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := am.LoadTexture(tt.asset); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("LoadTexture(%s) = %v, want ErrInvalidArgument", tt.asset, err)
			}
		})
	}
}

func TestLoadMaterial(t *testing.T) {
	am := newManager(t)

	ma, err := am.LoadMaterial("materials/brick.mat")
	if err != nil {
		t.Fatalf("LoadMaterial() = %v", err)
	}
	defer ma.Destroy()

	mat := ma.Material
	if mat.Name != "brick" || mat.Shader() != "Unlit/Texture" {
		t.Errorf("material %q uses %q", mat.Name, mat.Shader())
	}
	if c, ok := mat.GetVector("_Color"); !ok || c != math.NewVec4(1, 0.5, 0.25, 1) {
		t.Errorf("_Color = %v, %v", c, ok)
	}
	if g, ok := mat.GetFloat("_Glossiness"); !ok || g != 0.3 {
		t.Errorf("_Glossiness = %v, %v", g, ok)
	}
	if len(ma.Textures) != 2 {
		t.Fatalf("loaded %d textures, want 2", len(ma.Textures))
	}
	h, ok := mat.GetTexture("_MainTex")
	if !ok || h != ma.Textures["_MainTex"].Handle() {
		t.Errorf("_MainTex = %v, %v", h, ok)
	}
	if ma.Textures["_MainTex"].GraphicsFormat().IsSRGB() == ma.Textures["_BumpMap"].GraphicsFormat().IsSRGB() {
		t.Error("_BumpMap was not loaded as linear data")
	}
}

func TestLoadMaterialErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no shader", `name = "x"`},
		{"negative color", "shader = \"s\"\n[colors]\n_Color = [1.0, -1.0, 0.0, 1.0]\n"},
		{"missing texture", "shader = \"s\"\n[textures]\n_MainTex = \"nope.png\"\n"},
		{"escaping texture", "shader = \"s\"\n[textures]\n_MainTex = \"../../outside.png\"\n"},
		{"unbound linear texture", "shader = \"s\"\nlinear_textures = [\"_BumpMap\"]\n"},
		{"not toml", "shader = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := newManager(t)
			writeFile(t, am.Root(), "materials/bad.mat", []byte(tt.data))
			if err := am.Rescan(); err != nil {
				t.Fatal(err)
			}
			if _, err := am.LoadMaterial("materials/bad.mat"); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("LoadMaterial() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestLoadMesh(t *testing.T) {
	am := newManager(t)

	model, err := am.LoadMesh("models/quad.obj")
	if err != nil {
		t.Fatalf("LoadMesh() = %v", err)
	}
	defer model.Destroy()

	m := model.Mesh
	if m.Name != "quad" {
		t.Errorf("Name = %q", m.Name)
	}
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
	if got := m.SubMeshCount(); got != 2 {
		t.Fatalf("SubMeshCount() = %d, want 2", got)
	}
	if len(model.Materials) != 2 || model.Materials[0] != "brick" || model.Materials[1] != "glass" {
		t.Errorf("Materials = %v", model.Materials)
	}
	tris, err := m.GetTriangles(0, true)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int32{0, 1, 2, 0, 2, 3}; len(tris) != len(want) {
		t.Errorf("submesh 0 = %v, want %v", tris, want)
	}
	normals, err := m.GetNormals()
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range normals {
		if n.Z < 0.99 {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "# nothing\n"},
		{"short vertex", "v 1 2\n"},
		{"bad float", "v 1 2 x\n"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"relative index before start", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 -4\n"},
		{"usemtl without name", "v 0 0 0\nusemtl\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeOBJ([]byte(tt.data)); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("decodeOBJ() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestDecodeOBJGroupsByMaterial(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nvn 0 0 1\n" +
		"usemtl a\nf 1//1 2//1 3//1\nusemtl b\nf 1 3 4\nusemtl a\nf 1//1 3//1 4//1\n"
	model, err := decodeOBJ([]byte(data))
	if err != nil {
		t.Fatalf("decodeOBJ() = %v", err)
	}
	if len(model.groups) != 2 || model.groups[0].material != "a" || model.groups[1].material != "b" {
		t.Fatalf("groups = %+v", model.groups)
	}
	if n := len(model.groups[0].faces); n != 2 {
		t.Errorf("group a has %d faces, want 2", n)
	}
	if got := model.groups[1].faces[0][0]; got != (objIndex{v: 0, vt: -1, vn: -1}) {
		t.Errorf("corner without uv or normal = %+v", got)
	}
	if got := model.groups[0].faces[0][1]; got != (objIndex{v: 1, vt: -1, vn: 0}) {
		t.Errorf("corner with normal = %+v", got)
	}
}

func TestLoadMeshUInt32Indices(t *testing.T) {
	am := newManager(t)
	var sb strings.Builder
	const faces = metadata.MaxUInt16Vertices/3 + 1
	for i := 0; i < faces*3; i++ {
		fmt.Fprintf(&sb, "v %d %d 0\n", i%256, i/256)
	}
	sb.WriteString("vn 0 0 1\n")
	for i := 0; i < faces; i++ {
		fmt.Fprintf(&sb, "f %d//1 %d//1 %d//1\n", i*3+1, i*3+2, i*3+3)
	}
	writeFile(t, am.Root(), "models/big.obj", []byte(sb.String()))
	if err := am.Rescan(); err != nil {
		t.Fatal(err)
	}

	model, err := am.LoadMesh("models/big.obj")
	if err != nil {
		t.Fatalf("LoadMesh() = %v", err)
	}
	defer model.Destroy()
	if got := model.Mesh.VertexCount(); got != faces*3 {
		t.Errorf("VertexCount() = %d, want %d", got, faces*3)
	}
	if got := model.Mesh.IndexFormat(); got != metadata.IndexFormatUInt32 {
		t.Errorf("IndexFormat() = %v, want UInt32", got)
	}
}

func TestWatchFiresAssetChanged(t *testing.T) {
	am := newManager(t)

	changed := make(chan string, 16)
	listener := new(int)
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, listener, func(code core.SystemEventCode, sender, l interface{}, data core.EventContext) bool {
		if Kind(data.I32[0]) == KindImage && !data.Bool {
			select {
			case changed <- data.Path:
			default:
			}
		}
		return false
	})
	defer core.EventUnregister(core.EVENT_CODE_ASSET_CHANGED, listener)

	if err := am.Watch(); err != nil {
		t.Fatalf("Watch() = %v", err)
	}
	if err := am.Watch(); !errors.Is(err, core.ErrInvalidOperation) {
		t.Errorf("second Watch() = %v, want ErrInvalidOperation", err)
	}
	writeFile(t, am.Root(), "textures/new/dots.png", stripesPNG(t))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case name := <-changed:
			if name != "textures/new/dots.png" {
				continue
			}
			if _, err := am.Lookup(name); err != nil {
				t.Errorf("Lookup(%s) = %v", name, err)
			}
			return
		case <-deadline:
			t.Fatal("no asset changed event for textures/new/dots.png")
		}
	}
}
