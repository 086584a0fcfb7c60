package voxgrid

import (
	"encoding/binary"
	"math"
)

// u32Bytes little-endian encodes s into a fresh byte slice, matching the
// wire layout package kernel writes to and reads from GPU storage buffers
// (see kernel/dispatch.go's gridUniforms and kernel/transfer.go's Copy).
func u32Bytes(s []uint32) []byte {
	if len(s) == 0 {
		return nil
	}
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// f32Bytes little-endian encodes s into a fresh byte slice, one
// math.Float32bits-packed uint32 per element.
func f32Bytes(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// decodeU32 little-endian decodes b into dst, the inverse of u32Bytes.
func decodeU32(dst []uint32, b []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
}

// decodeF32 little-endian decodes b into dst, the inverse of f32Bytes.
func decodeF32(dst []float32, b []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
}
