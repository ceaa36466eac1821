package softgl

import "github.com/taigrr/volshade/pkg/gpu"

// UniformFloats returns the float payload last uploaded to a uniform of
// program p: 16 values for mat4, the first 3 for vec3, the first for float.
func (c *Context) UniformFloats(p gpu.Program, name string) ([16]float32, bool) {
	prog := c.programs[p]
	if prog == nil {
		return [16]float32{}, false
	}
	i, ok := prog.index[name]
	if !ok {
		return [16]float32{}, false
	}
	return prog.values[i].f, true
}

// UniformInts returns the integer payload last uploaded to a uniform of
// program p. Scalars and samplers use the first element.
func (c *Context) UniformInts(p gpu.Program, name string) ([3]int32, bool) {
	prog := c.programs[p]
	if prog == nil {
		return [3]int32{}, false
	}
	i, ok := prog.index[name]
	if !ok {
		return [3]int32{}, false
	}
	return prog.values[i].i, true
}

// TextureInfo describes a texture object.
type TextureInfo struct {
	Target               gpu.Enum
	Width, Height, Depth int
	Channels             int
	MinFilter            gpu.Enum
	MagFilter            gpu.Enum
	WrapS, WrapT, WrapR  gpu.Enum
	Complete             bool
}

// Texels returns Width*Height*Depth.
func (i TextureInfo) Texels() int {
	return i.Width * i.Height * i.Depth
}

// Texture describes tex, or reports false if it does not exist.
func (c *Context) Texture(tex gpu.Texture) (TextureInfo, bool) {
	t := c.textures[tex]
	if t == nil {
		return TextureInfo{}, false
	}
	return TextureInfo{
		Target:    t.target,
		Width:     t.width,
		Height:    t.height,
		Depth:      t.depth,
		Channels:  t.channels,
		MinFilter: t.minFilter,
		MagFilter: t.magFilter,
		WrapS:     t.wrapS,
		WrapT:     t.wrapT,
		WrapR:     t.wrapR,
		Complete:  t.complete(),
	}, true
}

// TexelAt returns the stored value of channel ch at integer coordinates,
// scaled back to a byte.
func (c *Context) TexelAt(tex gpu.Texture, x, y, z, ch int) (byte, bool) {
	t := c.textures[tex]
	if t == nil || t.data == nil || ch >= t.channels ||
		x < 0 || y < 0 || z < 0 || x >= t.width || y >= t.height || z >= t.depth {
		return 0, false
	}
	return to8(t.data[((z*t.height+y)*t.width+x)*t.channels+ch]), true
}
