package softgl

import (
	"math"

	"github.com/taigrr/volshade/pkg/gpu"
)

// nearestMipmapLinear is GL's default minification filter. A texture left
// with it has no mipmaps here and is therefore incomplete.
const nearestMipmapLinear gpu.Enum = 0x2702

// texture holds normalised channel data, row-major with X fastest.
type texture struct {
	target   gpu.Enum
	width    int
	height   int
	depth    int
	channels int
	data     []float32

	minFilter gpu.Enum
	magFilter gpu.Enum
	wrapS     gpu.Enum
	wrapT     gpu.Enum
	wrapR     gpu.Enum
}

func (c *Context) CreateTexture() gpu.Texture {
	id, ok := c.alloc()
	if !ok {
		return 0
	}
	h := gpu.Texture(id)
	c.textures[h] = &texture{
		minFilter: nearestMipmapLinear,
		magFilter: gpu.Linear,
		wrapS:     gpu.Repeat,
		wrapT:     gpu.Repeat,
		wrapR:     gpu.Repeat,
	}
	return h
}

func (c *Context) ActiveTexture(unit gpu.Enum) {
	n := int(unit - gpu.Texture0)
	if n < 0 || n >= MaxTextureUnits {
		c.setError(gpu.InvalidEnum)
		return
	}
	c.activeUnit = n
}

func (c *Context) BindTexture(target gpu.Enum, tex gpu.Texture) {
	if target != gpu.Texture2D && target != gpu.Texture3D {
		c.setError(gpu.InvalidEnum)
		return
	}
	if tex != 0 {
		t := c.textures[tex]
		if t == nil {
			c.setError(gpu.InvalidOperation)
			return
		}
		// A texture takes the target of its first binding.
		if t.target == 0 {
			t.target = target
		} else if t.target != target {
			c.setError(gpu.InvalidOperation)
			return
		}
	}
	u := &c.units[c.activeUnit]
	if target == gpu.Texture3D {
		u.tex3D = tex
	} else {
		u.tex2D = tex
	}
}

// bound returns the texture bound to target on the active unit.
func (c *Context) bound(target gpu.Enum) *texture {
	u := c.units[c.activeUnit]
	switch target {
	case gpu.Texture2D:
		return c.textures[u.tex2D]
	case gpu.Texture3D:
		return c.textures[u.tex3D]
	}
	return nil
}

func (c *Context) TexParameteri(target, pname, param gpu.Enum) {
	if target != gpu.Texture2D && target != gpu.Texture3D {
		c.setError(gpu.InvalidEnum)
		return
	}
	t := c.bound(target)
	if t == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	switch pname {
	case gpu.TextureMinFilter:
		if param != gpu.Nearest && param != gpu.Linear && param != nearestMipmapLinear {
			c.setError(gpu.InvalidEnum)
			return
		}
		t.minFilter = param
	case gpu.TextureMagFilter:
		if param != gpu.Nearest && param != gpu.Linear {
			c.setError(gpu.InvalidEnum)
			return
		}
		t.magFilter = param
	case gpu.TextureWrapS, gpu.TextureWrapT, gpu.TextureWrapR:
		if param != gpu.Repeat && param != gpu.ClampToEdge {
			c.setError(gpu.InvalidEnum)
			return
		}
		switch pname {
		case gpu.TextureWrapS:
			t.wrapS = param
		case gpu.TextureWrapT:
			t.wrapT = param
		default:
			t.wrapR = param
		}
	default:
		c.setError(gpu.InvalidEnum)
	}
}

func (c *Context) PixelStorei(pname gpu.Enum, param int) {
	if pname != gpu.UnpackAlignment {
		c.setError(gpu.InvalidEnum)
		return
	}
	switch param {
	case 1, 2, 4, 8:
		c.unpackAlignment = param
	default:
		c.setError(gpu.InvalidValue)
	}
}

func (c *Context) TexImage2D(target gpu.Enum, level int, internalFormat gpu.Enum, width, height int, format, typ gpu.Enum, pixels []byte) {
	if target != gpu.Texture2D {
		c.setError(gpu.InvalidEnum)
		return
	}
	c.texImage(target, level, internalFormat, width, height, 1, format, typ, pixels, MaxTextureSize)
}

func (c *Context) TexImage3D(target gpu.Enum, level int, internalFormat gpu.Enum, width, height, depth int, format, typ gpu.Enum, pixels []byte) {
	if target != gpu.Texture3D {
		c.setError(gpu.InvalidEnum)
		return
	}
	c.texImage(target, level, internalFormat, width, height, depth, format, typ, pixels, c.max3DSize)
}

func (c *Context) texImage(target gpu.Enum, level int, internalFormat gpu.Enum, width, height, depth int, format, typ gpu.Enum, pixels []byte, maxSize int) {
	t := c.bound(target)
	if t == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	if level != 0 || width <= 0 || height <= 0 || depth <= 0 ||
		width > maxSize || height > maxSize || depth > maxSize {
		c.setError(gpu.InvalidValue)
		return
	}

	var channels int
	switch {
	case internalFormat == gpu.RGBA8 && format == gpu.RGBA && typ == gpu.UnsignedByte:
		channels = 4
	case internalFormat == gpu.R8 && format == gpu.Red && typ == gpu.UnsignedByte:
		channels = 1
	default:
		c.setError(gpu.InvalidOperation)
		return
	}

	rowBytes := width * channels
	stride := (rowBytes + c.unpackAlignment - 1) / c.unpackAlignment * c.unpackAlignment
	rows := height * depth
	if len(pixels) < stride*(rows-1)+rowBytes {
		c.setError(gpu.InvalidOperation)
		return
	}

	data := make([]float32, rowBytes*rows)
	for r := range rows {
		src := pixels[r*stride : r*stride+rowBytes]
		dst := data[r*rowBytes : (r+1)*rowBytes]
		for i, b := range src {
			dst[i] = float32(b) / 255
		}
	}

	t.width, t.height, t.depth = width, height, depth
	t.channels = channels
	t.data = data
	c.stats.TexelsUploaded += width * height * depth
}

func (c *Context) DeleteTexture(tex gpu.Texture) {
	if c.textures[tex] == nil {
		return
	}
	delete(c.textures, tex)
	for i := range c.units {
		if c.units[i].tex2D == tex {
			c.units[i].tex2D = 0
		}
		if c.units[i].tex3D == tex {
			c.units[i].tex3D = 0
		}
	}
}

// complete reports whether the texture can be sampled.
func (t *texture) complete() bool {
	return t != nil && t.data != nil && t.minFilter != nearestMipmapLinear
}

// texel returns channel ch of the texel at integer coordinates after
// applying the wrap modes.
func (t *texture) texel(x, y, z, ch int) float32 {
	x = wrapIndex(x, t.width, t.wrapS)
	y = wrapIndex(y, t.height, t.wrapT)
	z = wrapIndex(z, t.depth, t.wrapR)
	return t.data[((z*t.height+y)*t.width+x)*t.channels+ch]
}

// sample filters the texture at normalised coordinates. There is a single
// level, so it filters linearly when either filter asks for it.
func (t *texture) sample(u, v, w float64) [4]float32 {
	if !t.complete() {
		return [4]float32{0, 0, 0, 1}
	}

	filter := gpu.Nearest
	if t.minFilter == gpu.Linear || t.magFilter == gpu.Linear {
		filter = gpu.Linear
	}

	var out [4]float32
	out[3] = 1
	for ch := range t.channels {
		if filter == gpu.Nearest {
			out[ch] = t.texel(nearestIndex(u, t.width), nearestIndex(v, t.height), nearestIndex(w, t.depth), ch)
		} else {
			out[ch] = t.trilinear(u, v, w, ch)
		}
	}
	if t.channels == 1 {
		// R8 samples as (r, 0, 0, 1).
		out[1], out[2] = 0, 0
	}
	return out
}

func (t *texture) trilinear(u, v, w float64, ch int) float32 {
	fx := u*float64(t.width) - 0.5
	fy := v*float64(t.height) - 0.5
	fz := w*float64(t.depth) - 0.5

	x0, y0, z0 := int(math.Floor(fx)), int(math.Floor(fy)), int(math.Floor(fz))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))
	tz := float32(fz - float64(z0))

	c00 := lerp(t.texel(x0, y0, z0, ch), t.texel(x0+1, y0, z0, ch), tx)
	c10 := lerp(t.texel(x0, y0+1, z0, ch), t.texel(x0+1, y0+1, z0, ch), tx)
	c01 := lerp(t.texel(x0, y0, z0+1, ch), t.texel(x0+1, y0, z0+1, ch), tx)
	c11 := lerp(t.texel(x0, y0+1, z0+1, ch), t.texel(x0+1, y0+1, z0+1, ch), tx)

	return lerp(lerp(c00, c10, ty), lerp(c01, c11, ty), tz)
}

func nearestIndex(coord float64, size int) int {
	return int(math.Floor(coord * float64(size)))
}

// wrapIndex applies a wrap mode to a texel index.
func wrapIndex(i, size int, mode gpu.Enum) int {
	if mode == gpu.Repeat {
		i %= size
		if i < 0 {
			i += size
		}
		return i
	}
	return min(max(i, 0), size-1)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
