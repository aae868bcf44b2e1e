package model

import (
	"encoding/binary"
	"math"
)

// VertexStride is the size of one packed vertex in bytes: position, normal and uv at locations
// 0, 1 and 2 of the vertex input.
const VertexStride = 32

// Attribute offsets inside one packed vertex.
const (
	PositionOffset = 0
	NormalOffset   = 12
	UVOffset       = 24
)

// Marshal serializes the vertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: VertexStride bytes
func (v Vertex) Marshal() []byte {
	buf := make([]byte, VertexStride)
	v.put(buf)
	return buf
}

func (v Vertex) put(buf []byte) {
	vals := [8]float32{v.Position[0], v.Position[1], v.Position[2], v.Normal[0], v.Normal[1], v.Normal[2], v.UV[0], v.UV[1]}
	for i, f := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// VertexData packs every vertex of the mesh back to back.
//
// Returns:
//   - []byte: len(Vertices)*VertexStride bytes
func (m *Mesh) VertexData() []byte {
	buf := make([]byte, len(m.Vertices)*VertexStride)
	for i, v := range m.Vertices {
		v.put(buf[i*VertexStride:])
	}
	return buf
}

// IndexData packs the indices as little endian uint32.
//
// Returns:
//   - []byte: len(Indices)*4 bytes
func (m *Mesh) IndexData() []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
