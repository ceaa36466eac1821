package geometry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoStrip means a glTF file has no mesh primitive with positions.
var ErrNoStrip = errors.New("no position primitive found")

// WriteGLB saves positions as a single triangle-strip mesh in a binary
// glTF file.
func WriteGLB(path, name string, positions []float32) error {
	if len(positions) == 0 || len(positions)%3 != 0 {
		return fmt.Errorf("write glb: %d floats is not a list of positions", len(positions))
	}
	verts := make([][3]float32, len(positions)/3)
	for i := range verts {
		verts[i] = [3]float32{positions[3*i], positions[3*i+1], positions[3*i+2]}
	}

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, verts)
	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Mode:       gltf.PrimitiveTriangleStrip,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("write glb: %w", err)
	}
	return nil
}

// ReadStrip loads the first primitive with positions from a glTF or GLB
// file and returns them as x, y, z triples. Indexed primitives are
// expanded.
func ReadStrip(path string) ([]float32, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			verts, err := readVec3(doc, posIdx)
			if err != nil {
				return nil, fmt.Errorf("read positions of %q: %w", m.Name, err)
			}
			if prim.Indices != nil {
				indices, err := readIndices(doc, *prim.Indices)
				if err != nil {
					return nil, fmt.Errorf("read indices of %q: %w", m.Name, err)
				}
				verts, err = expand(verts, indices)
				if err != nil {
					return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
				}
			}
			out := make([]float32, 0, len(verts)*3)
			for _, v := range verts {
				out = append(out, v[0], v[1], v[2])
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoStrip)
}

func expand(verts [][3]float32, indices []int) ([][3]float32, error) {
	out := make([][3]float32, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(verts) {
			return nil, fmt.Errorf("index %d out of range (%d vertices)", idx, len(verts))
		}
		out[i] = verts[idx]
	}
	return out, nil
}

// bufferView returns the bytes an accessor reads from and its start offset.
func bufferView(doc *gltf.Document, acc *gltf.Accessor) ([]byte, int, int, error) {
	if acc.BufferView == nil {
		return nil, 0, 0, errors.New("accessor has no buffer view")
	}
	bv := doc.BufferViews[*acc.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.Data == nil {
		return nil, 0, 0, errors.New("buffer has no data")
	}
	return buf.Data, bv.ByteOffset + acc.ByteOffset, bv.ByteStride, nil
}

func readVec3(doc *gltf.Document, idx int) ([][3]float32, error) {
	acc := doc.Accessors[idx]
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", acc.Type, acc.ComponentType)
	}
	data, start, stride, err := bufferView(doc, acc)
	if err != nil {
		return nil, err
	}
	if stride == 0 {
		stride = 12
	}
	if acc.Count > 0 && start+(acc.Count-1)*stride+12 > len(data) {
		return nil, errors.New("accessor runs past the end of its buffer")
	}

	out := make([][3]float32, acc.Count)
	for i := range out {
		off := start + i*stride
		for j := range 3 {
			out[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+j*4:]))
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx int) ([]int, error) {
	acc := doc.Accessors[idx]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", acc.Type)
	}
	data, start, stride, err := bufferView(doc, acc)
	if err != nil {
		return nil, err
	}

	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", acc.ComponentType)
	}
	if stride == 0 {
		stride = size
	}
	if acc.Count > 0 && start+(acc.Count-1)*stride+size > len(data) {
		return nil, errors.New("accessor runs past the end of its buffer")
	}

	out := make([]int, acc.Count)
	for i := range out {
		b := data[start+i*stride:]
		switch size {
		case 1:
			out[i] = int(b[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(b))
		default:
			out[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}
