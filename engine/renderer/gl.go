package renderer

import (
	"sync"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/material"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Primitive modes accepted by GL.Begin. Values match the native enum.
const (
	GLLines         = 1
	GLLineStrip     = 2
	GLTriangles     = 4
	GLTriangleStrip = 5
	GLQuads         = 7
)

// maxMatrixStackDepth bounds PushMatrix.
const maxMatrixStackDepth = 32

type glMatrices struct {
	modelView  math.Mat4
	projection math.Mat4
}

/**
 * @brief Immediate mode drawing. Geometry between Begin and End becomes one
 * immediate draw; draws, clears and viewport changes run in order on Flush
 * or at the end of the frame.
 */
type GL struct {
	backend native.Backend

	mutex     sync.Mutex
	inBegin   bool
	mode      int
	vertices  []math.Vec3
	colors    []math.Color
	texCoords []math.Vec3
	color     math.Color
	texCoord  math.Vec3
	matrices  glMatrices
	stack     []glMatrices
	material  native.Handle
	pending   []native.Command
}

func newGL(backend native.Backend) *GL {
	return &GL{
		backend: backend,
		color:   math.Color{R: 1, G: 1, B: 1, A: 1},
		matrices: glMatrices{
			modelView:  math.NewMat4Identity(),
			projection: math.NewMat4Identity(),
		},
	}
}

func primitiveSize(mode int) (int, bool) {
	switch mode {
	case GLLines:
		return 2, true
	case GLTriangles:
		return 3, true
	case GLQuads:
		return 4, true
	case GLLineStrip, GLTriangleStrip:
		return 1, true
	}
	return 0, false
}

// Begin starts a primitive. Begin cannot nest.
func (gl *GL) Begin(mode int) error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if gl.inBegin {
		return core.InvalidOperation("GL.Begin called inside another Begin")
	}
	if _, ok := primitiveSize(mode); !ok {
		return core.InvalidArgument("unknown GL primitive mode %d", mode)
	}
	gl.inBegin = true
	gl.mode = mode
	gl.vertices = gl.vertices[:0]
	gl.colors = gl.colors[:0]
	gl.texCoords = gl.texCoords[:0]
	return nil
}

// End closes the primitive and queues it. Trailing vertices that do not form
// a whole primitive are dropped with a warning.
func (gl *GL) End() error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if !gl.inBegin {
		return core.InvalidOperation("GL.End called without Begin")
	}
	gl.inBegin = false

	n := len(gl.vertices)
	size, _ := primitiveSize(gl.mode)
	switch gl.mode {
	case GLLineStrip:
		if n < 2 {
			n = 0
		}
	case GLTriangleStrip:
		if n < 3 {
			n = 0
		}
	default:
		n -= n % size
	}
	if n != len(gl.vertices) {
		core.LogWarn("GL.End: dropping %d vertices that do not form a whole primitive", len(gl.vertices)-n)
	}
	if n == 0 {
		return nil
	}
	gl.pending = append(gl.pending, native.DrawImmediateCommand{
		Mode:      gl.mode,
		Vertices:  append([]math.Vec3(nil), gl.vertices[:n]...),
		Colors:    append([]math.Color(nil), gl.colors[:n]...),
		TexCoords: append([]math.Vec3(nil), gl.texCoords[:n]...),
		Matrix:    gl.matrices.projection.Mul(gl.matrices.modelView),
		Material:  gl.material,
	})
	return nil
}

// Vertex3 emits a vertex with the current color and texture coordinate.
func (gl *GL) Vertex3(x, y, z float32) error {
	return gl.Vertex(math.Vec3{X: x, Y: y, Z: z})
}

func (gl *GL) Vertex(v math.Vec3) error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if !gl.inBegin {
		return core.InvalidOperation("GL.Vertex called outside Begin/End")
	}
	gl.vertices = append(gl.vertices, v)
	gl.colors = append(gl.colors, gl.color)
	gl.texCoords = append(gl.texCoords, gl.texCoord)
	return nil
}

// Color sets the color of the following vertices.
func (gl *GL) Color(c math.Color) {
	gl.mutex.Lock()
	gl.color = c
	gl.mutex.Unlock()
}

func (gl *GL) TexCoord2(u, v float32) {
	gl.TexCoord(math.Vec3{X: u, Y: v})
}

func (gl *GL) TexCoord(uvw math.Vec3) {
	gl.mutex.Lock()
	gl.texCoord = uvw
	gl.mutex.Unlock()
}

// SetPass selects the material used by following primitives.
func (gl *GL) SetPass(mat *material.Material) error {
	if mat == nil || !mat.Handle().IsValid() {
		return core.InvalidArgument("GL.SetPass needs a live material")
	}
	gl.mutex.Lock()
	gl.material = mat.Handle()
	gl.mutex.Unlock()
	return nil
}

func (gl *GL) PushMatrix() error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if len(gl.stack) >= maxMatrixStackDepth {
		return core.InvalidOperation("GL matrix stack overflow (depth %d)", maxMatrixStackDepth)
	}
	gl.stack = append(gl.stack, gl.matrices)
	return nil
}

func (gl *GL) PopMatrix() error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if len(gl.stack) == 0 {
		return core.InvalidOperation("GL.PopMatrix on an empty matrix stack")
	}
	gl.matrices = gl.stack[len(gl.stack)-1]
	gl.stack = gl.stack[:len(gl.stack)-1]
	return nil
}

func (gl *GL) LoadIdentity() {
	gl.mutex.Lock()
	gl.matrices.modelView = math.NewMat4Identity()
	gl.mutex.Unlock()
}

// LoadOrtho maps (0,0)-(1,1) to the viewport and resets the model-view matrix.
func (gl *GL) LoadOrtho() {
	gl.mutex.Lock()
	gl.matrices.projection = math.NewMat4Orthographic(0, 1, 0, 1, -1, 100)
	gl.matrices.modelView = math.NewMat4Identity()
	gl.mutex.Unlock()
}

// LoadPixelMatrix maps pixel coordinates of the current window to the viewport.
func (gl *GL) LoadPixelMatrix() {
	w, h := gl.backend.WindowSize()
	gl.mutex.Lock()
	gl.matrices.projection = math.NewMat4Orthographic(0, float32(w), 0, float32(h), -1, 100)
	gl.matrices.modelView = math.NewMat4Identity()
	gl.mutex.Unlock()
}

func (gl *GL) LoadProjectionMatrix(m math.Mat4) {
	gl.mutex.Lock()
	gl.matrices.projection = m
	gl.mutex.Unlock()
}

func (gl *GL) MultMatrix(m math.Mat4) {
	gl.mutex.Lock()
	gl.matrices.modelView = gl.matrices.modelView.Mul(m)
	gl.mutex.Unlock()
}

func (gl *GL) ModelView() math.Mat4 {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	return gl.matrices.modelView
}

func (gl *GL) SetModelView(m math.Mat4) {
	gl.mutex.Lock()
	gl.matrices.modelView = m
	gl.mutex.Unlock()
}

func (gl *GL) Projection() math.Mat4 {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	return gl.matrices.projection
}

func (gl *GL) Viewport(rect math.Rect) error {
	if rect.Width < 0 || rect.Height < 0 {
		return core.InvalidArgument("viewport size must be non-negative, got %vx%v", rect.Width, rect.Height)
	}
	return gl.queue(native.SetViewportCommand{Rect: rect})
}

// Clear clears the active render target.
func (gl *GL) Clear(clearDepth, clearColor bool, color math.Color, depth float32) error {
	var flags metadata.RTClearFlags
	if clearColor {
		flags |= metadata.RTClearColor
	}
	if clearDepth {
		flags |= metadata.RTClearDepth
	}
	if flags == metadata.RTClearNone {
		return nil
	}
	return gl.queue(native.ClearRenderTargetCommand{Flags: flags, Color: color, Depth: depth})
}

func (gl *GL) queue(cmd native.Command) error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if gl.inBegin {
		return core.InvalidOperation("%s is not allowed between GL.Begin and GL.End", cmd.CommandName())
	}
	gl.pending = append(gl.pending, cmd)
	return nil
}

// Pending is the number of queued immediate mode commands.
func (gl *GL) Pending() int {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	return len(gl.pending)
}

// Flush runs every queued immediate mode command.
func (gl *GL) Flush() error {
	gl.mutex.Lock()
	defer gl.mutex.Unlock()
	if gl.inBegin {
		return core.InvalidOperation("GL.Flush called between Begin and End")
	}
	if len(gl.pending) == 0 {
		return nil
	}
	cmds := gl.pending
	gl.pending = nil
	if err := gl.backend.Execute("GL", cmds); err != nil {
		return core.NativeFailure("GL.Flush", err)
	}
	return nil
}
