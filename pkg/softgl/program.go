package softgl

import (
	"strings"

	"github.com/taigrr/volshade/pkg/gpu"
)

type shader struct {
	stage    gpu.Enum
	source   string
	compiled bool
	log      string
	iface    *iface
}

type program struct {
	vertex   gpu.Shader
	fragment gpu.Shader
	linked   bool
	log      string

	uniforms []variable
	values   []uniformValue
	index    map[string]int
}

// uniformValue holds whatever was last uploaded for a uniform.
type uniformValue struct {
	f [16]float32
	i [3]int32
}

func (c *Context) CreateShader(typ gpu.Enum) gpu.Shader {
	if typ != gpu.VertexShader && typ != gpu.FragmentShader {
		c.setError(gpu.InvalidEnum)
		return 0
	}
	id, ok := c.alloc()
	if !ok {
		return 0
	}
	h := gpu.Shader(id)
	c.shaders[h] = &shader{stage: typ}
	return h
}

func (c *Context) ShaderSource(sh gpu.Shader, src string) {
	s := c.shaders[sh]
	if s == nil {
		c.setError(gpu.InvalidValue)
		return
	}
	s.source = src
}

func (c *Context) CompileShader(sh gpu.Shader) {
	s := c.shaders[sh]
	if s == nil {
		c.setError(gpu.InvalidValue)
		return
	}
	s.iface, s.log = compileGLSL(s.stage, s.source)
	s.compiled = s.iface != nil
}

func (c *Context) ShaderCompileStatus(sh gpu.Shader) bool {
	s := c.shaders[sh]
	return s != nil && s.compiled
}

func (c *Context) ShaderInfoLog(sh gpu.Shader) string {
	if s := c.shaders[sh]; s != nil {
		return s.log
	}
	return ""
}

func (c *Context) DeleteShader(sh gpu.Shader) {
	delete(c.shaders, sh)
}

func (c *Context) CreateProgram() gpu.Program {
	id, ok := c.alloc()
	if !ok {
		return 0
	}
	h := gpu.Program(id)
	c.programs[h] = &program{}
	return h
}

func (c *Context) AttachShader(p gpu.Program, sh gpu.Shader) {
	prog, s := c.programs[p], c.shaders[sh]
	if prog == nil || s == nil {
		c.setError(gpu.InvalidValue)
		return
	}
	if s.stage == gpu.VertexShader {
		if prog.vertex != 0 {
			c.setError(gpu.InvalidOperation)
			return
		}
		prog.vertex = sh
		return
	}
	if prog.fragment != 0 {
		c.setError(gpu.InvalidOperation)
		return
	}
	prog.fragment = sh
}

func (c *Context) LinkProgram(p gpu.Program) {
	prog := c.programs[p]
	if prog == nil {
		c.setError(gpu.InvalidValue)
		return
	}
	prog.linked = false
	prog.uniforms, prog.values, prog.index = nil, nil, nil

	vs, fs := c.shaders[prog.vertex], c.shaders[prog.fragment]
	var missing []string
	if vs == nil || !vs.compiled {
		missing = append(missing, "error: no compiled vertex shader attached")
	}
	if fs == nil || !fs.compiled {
		missing = append(missing, "error: no compiled fragment shader attached")
	}
	if len(missing) > 0 {
		prog.log = strings.Join(missing, "\n") + "\n"
		return
	}

	uniforms, log := linkStages(vs.iface, fs.iface)
	prog.log = log
	if log != "" {
		return
	}
	prog.linked = true
	prog.uniforms = uniforms
	prog.values = make([]uniformValue, len(uniforms))
	prog.index = make(map[string]int, len(uniforms))
	for i, u := range uniforms {
		prog.index[u.Name] = i
	}
}

func (c *Context) ProgramLinkStatus(p gpu.Program) bool {
	prog := c.programs[p]
	return prog != nil && prog.linked
}

func (c *Context) ProgramInfoLog(p gpu.Program) string {
	if prog := c.programs[p]; prog != nil {
		return prog.log
	}
	return ""
}

func (c *Context) UseProgram(p gpu.Program) {
	if p == 0 {
		c.current = 0
		return
	}
	prog := c.programs[p]
	if prog == nil || !prog.linked {
		c.setError(gpu.InvalidOperation)
		return
	}
	c.current = p
}

func (c *Context) DeleteProgram(p gpu.Program) {
	if c.programs[p] == nil {
		return
	}
	delete(c.programs, p)
	if c.current == p {
		c.current = 0
	}
}

func (c *Context) GetUniformLocation(p gpu.Program, name string) gpu.UniformLocation {
	prog := c.programs[p]
	if prog == nil || !prog.linked {
		c.setError(gpu.InvalidOperation)
		return gpu.NoUniform
	}
	i, ok := prog.index[name]
	if !ok {
		return gpu.NoUniform
	}
	return gpu.UniformLocation(i)
}

// uniform returns the storage for loc in the current program after checking
// that the declared type is one of types. A -1 location is silently
// ignored, as in GL.
func (c *Context) uniform(loc gpu.UniformLocation, types ...string) *uniformValue {
	if loc == gpu.NoUniform {
		return nil
	}
	prog := c.programs[c.current]
	if prog == nil || loc < 0 || int(loc) >= len(prog.values) {
		c.setError(gpu.InvalidOperation)
		return nil
	}
	declared := prog.uniforms[loc].Type
	for _, t := range types {
		if declared == t {
			return &prog.values[loc]
		}
	}
	c.setError(gpu.InvalidOperation)
	return nil
}

func (c *Context) Uniform1i(loc gpu.UniformLocation, v int32) {
	if u := c.uniform(loc, "int", "bool", "sampler2D", "sampler3D"); u != nil {
		u.i[0] = v
	}
}

func (c *Context) Uniform1f(loc gpu.UniformLocation, v float32) {
	if u := c.uniform(loc, "float"); u != nil {
		u.f[0] = v
	}
}

func (c *Context) Uniform3fv(loc gpu.UniformLocation, v [3]float32) {
	if u := c.uniform(loc, "vec3"); u != nil {
		copy(u.f[:3], v[:])
	}
}

func (c *Context) Uniform3iv(loc gpu.UniformLocation, v [3]int32) {
	if u := c.uniform(loc, "ivec3"); u != nil {
		u.i = v
	}
}

func (c *Context) UniformMatrix4fv(loc gpu.UniformLocation, transpose bool, m [16]float32) {
	if transpose {
		var t [16]float32
		for col := range 4 {
			for row := range 4 {
				t[row+col*4] = m[col+row*4]
			}
		}
		m = t
	}
	if u := c.uniform(loc, "mat4"); u != nil {
		u.f = m
	}
}
