package gpu

import "fmt"

// Enum is a GL enumerant. Values match the WebGL2 / OpenGL ES 3.0 headers.
type Enum uint32

// Buffer targets and usage.
const (
	ArrayBuffer Enum = 0x8892
	StaticDraw  Enum = 0x88E4
)

// Data types.
const (
	UnsignedByte Enum = 0x1401
	Int          Enum = 0x1404
	Float        Enum = 0x1406
)

// Shader stages.
const (
	FragmentShader Enum = 0x8B30
	VertexShader   Enum = 0x8B31
)

// Texture targets, units and parameters.
const (
	Texture2D        Enum = 0x0DE1
	Texture3D        Enum = 0x806F
	Texture0         Enum = 0x84C0
	TextureMagFilter Enum = 0x2800
	TextureMinFilter Enum = 0x2801
	TextureWrapS     Enum = 0x2802
	TextureWrapT     Enum = 0x2803
	TextureWrapR     Enum = 0x8072
	Nearest          Enum = 0x2600
	Linear           Enum = 0x2601
	Repeat           Enum = 0x2901
	ClampToEdge      Enum = 0x812F
	UnpackAlignment  Enum = 0x0CF5
)

// Pixel formats.
const (
	Red   Enum = 0x1903
	RGBA  Enum = 0x1908
	RGBA8 Enum = 0x8058
	R8    Enum = 0x8229
)

// Capabilities and fixed-function state.
const (
	CullFace         Enum = 0x0B44
	DepthTest        Enum = 0x0B71
	Blend            Enum = 0x0BE2
	Front            Enum = 0x0404
	Back             Enum = 0x0405
	FrontAndBack     Enum = 0x0408
	CW               Enum = 0x0900
	CCW              Enum = 0x0901
	Zero             Enum = 0
	One              Enum = 1
	SrcAlpha         Enum = 0x0302
	OneMinusSrcAlpha Enum = 0x0303
	DepthBufferBit   Enum = 0x0100
	ColorBufferBit   Enum = 0x4000
)

// Primitive modes.
const (
	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
)

// Error codes returned by GetError.
const (
	NoError          Enum = 0
	InvalidEnum      Enum = 0x0500
	InvalidValue     Enum = 0x0501
	InvalidOperation Enum = 0x0502
	OutOfMemory      Enum = 0x0505
)

func (e Enum) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	}
	return fmt.Sprintf("0x%04X", uint32(e))
}
