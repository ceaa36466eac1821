// Package gpu defines the slice of the WebGL2 API the volume pipeline
// needs. Implementations own every object they hand out; a zero handle
// means the allocation failed.
package gpu

// Object handles. Zero is never a valid object.
type (
	Buffer      uint32
	VertexArray uint32
	Shader      uint32
	Program     uint32
	Texture     uint32
)

// UniformLocation is the location of a uniform in a linked program. -1
// means the program has no active uniform of that name.
type UniformLocation int32

// NoUniform is returned by GetUniformLocation for unknown names.
const NoUniform UniformLocation = -1

// Context is a WebGL2-style graphics context. Like GL, it is not safe for
// concurrent use; one goroutine owns it.
type Context interface {
	CreateVertexArray() VertexArray
	BindVertexArray(vao VertexArray)
	DeleteVertexArray(vao VertexArray)

	CreateBuffer() Buffer
	BindBuffer(target Enum, buf Buffer)
	BufferData(target Enum, data []float32, usage Enum)
	DeleteBuffer(buf Buffer)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int, typ Enum, normalized bool, stride, offset int)

	CreateShader(typ Enum) Shader
	ShaderSource(sh Shader, src string)
	CompileShader(sh Shader)
	ShaderCompileStatus(sh Shader) bool
	ShaderInfoLog(sh Shader) string
	DeleteShader(sh Shader)

	CreateProgram() Program
	AttachShader(p Program, sh Shader)
	LinkProgram(p Program)
	ProgramLinkStatus(p Program) bool
	ProgramInfoLog(p Program) string
	UseProgram(p Program)
	DeleteProgram(p Program)
	GetUniformLocation(p Program, name string) UniformLocation

	Uniform1i(loc UniformLocation, v int32)
	Uniform1f(loc UniformLocation, v float32)
	Uniform3fv(loc UniformLocation, v [3]float32)
	Uniform3iv(loc UniformLocation, v [3]int32)
	UniformMatrix4fv(loc UniformLocation, transpose bool, m [16]float32)

	CreateTexture() Texture
	ActiveTexture(unit Enum)
	BindTexture(target Enum, tex Texture)
	TexParameteri(target, pname, param Enum)
	PixelStorei(pname Enum, param int)
	TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, typ Enum, pixels []byte)
	TexImage3D(target Enum, level int, internalFormat Enum, width, height, depth int, format, typ Enum, pixels []byte)
	DeleteTexture(tex Texture)

	Enable(capability Enum)
	Disable(capability Enum)
	CullFace(mode Enum)
	FrontFace(mode Enum)
	BlendFunc(src, dst Enum)
	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	Clear(mask Enum)
	DrawArrays(mode Enum, first, count int)
	Finish()

	// GetError returns and clears the oldest recorded error.
	GetError() Enum
}
