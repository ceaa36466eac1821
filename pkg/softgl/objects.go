package softgl

import "github.com/taigrr/volshade/pkg/gpu"

type buffer struct {
	data []float32
}

type attribPointer struct {
	enabled bool
	buffer  gpu.Buffer
	size    int
	stride  int // bytes
	offset  int // bytes
}

type vertexArray struct {
	attribs [maxVertexAttribs]attribPointer
}

func (c *Context) CreateVertexArray() gpu.VertexArray {
	id, ok := c.alloc()
	if !ok {
		return 0
	}
	h := gpu.VertexArray(id)
	c.vaos[h] = &vertexArray{}
	return h
}

func (c *Context) BindVertexArray(vao gpu.VertexArray) {
	if vao != 0 && c.vaos[vao] == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	c.boundVAO = vao
}

func (c *Context) DeleteVertexArray(vao gpu.VertexArray) {
	if c.vaos[vao] == nil {
		return
	}
	delete(c.vaos, vao)
	if c.boundVAO == vao {
		c.boundVAO = 0
	}
}

func (c *Context) CreateBuffer() gpu.Buffer {
	id, ok := c.alloc()
	if !ok {
		return 0
	}
	h := gpu.Buffer(id)
	c.buffers[h] = &buffer{}
	return h
}

func (c *Context) BindBuffer(target gpu.Enum, buf gpu.Buffer) {
	if target != gpu.ArrayBuffer {
		c.setError(gpu.InvalidEnum)
		return
	}
	if buf != 0 && c.buffers[buf] == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	c.boundArray = buf
}

func (c *Context) BufferData(target gpu.Enum, data []float32, usage gpu.Enum) {
	if target != gpu.ArrayBuffer || usage != gpu.StaticDraw {
		c.setError(gpu.InvalidEnum)
		return
	}
	b := c.buffers[c.boundArray]
	if b == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	b.data = append([]float32(nil), data...)
}

func (c *Context) DeleteBuffer(buf gpu.Buffer) {
	if c.buffers[buf] == nil {
		return
	}
	delete(c.buffers, buf)
	if c.boundArray == buf {
		c.boundArray = 0
	}
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	vao := c.vaos[c.boundVAO]
	if vao == nil || index >= maxVertexAttribs {
		c.setError(gpu.InvalidOperation)
		return
	}
	vao.attribs[index].enabled = true
}

func (c *Context) VertexAttribPointer(index uint32, size int, typ gpu.Enum, normalized bool, stride, offset int) {
	vao := c.vaos[c.boundVAO]
	switch {
	case vao == nil || c.boundArray == 0:
		c.setError(gpu.InvalidOperation)
		return
	case index >= maxVertexAttribs || size < 1 || size > 4 || stride < 0 || offset < 0:
		c.setError(gpu.InvalidValue)
		return
	case typ != gpu.Float || normalized:
		c.setError(gpu.InvalidEnum)
		return
	}
	if stride == 0 {
		stride = size * 4
	}
	a := &vao.attribs[index]
	a.buffer = c.boundArray
	a.size = size
	a.stride = stride
	a.offset = offset
}

// fetch reads attribute index of vertex i as a vec3, padding missing
// components with zero.
func (c *Context) fetch(a attribPointer, i int) ([3]float32, bool) {
	b := c.buffers[a.buffer]
	if b == nil || a.stride%4 != 0 || a.offset%4 != 0 {
		return [3]float32{}, false
	}
	start := (a.offset + i*a.stride) / 4
	if start+a.size > len(b.data) {
		return [3]float32{}, false
	}
	var v [3]float32
	copy(v[:], b.data[start:start+min(a.size, 3)])
	return v, true
}
