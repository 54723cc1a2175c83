package encio

import (
	"math"
)

// EncodeUint32 writes a little-endian uint32 to buff.
func EncodeUint32(buff []byte, n uint32) {
	buff[0] = uint8(n)
	buff[1] = uint8(n >> 8)
	buff[2] = uint8(n >> 16)
	buff[3] = uint8(n >> 24)
}

// DecodeUint32 reads a little-endian uint32 from buff.
func DecodeUint32(buff []byte) uint32 {
	n := uint32(buff[0])
	n |= uint32(buff[1]) << 8
	n |= uint32(buff[2]) << 16
	n |= uint32(buff[3]) << 24
	return n
}

// EncodeUint64 writes a little-endian uint64 to buff.
func EncodeUint64(buff []byte, n uint64) {
	EncodeUint32(buff, uint32(n))
	EncodeUint32(buff[4:], uint32(n>>32))
}

// DecodeUint64 reads a little-endian uint64 from buff.
func DecodeUint64(buff []byte) uint64 {
	return uint64(DecodeUint32(buff)) | uint64(DecodeUint32(buff[4:]))<<32
}

// EncodeFloat32 writes an IEEE-754 float in 4 little-endian bytes.
func EncodeFloat32(buff []byte, f float32) {
	EncodeUint32(buff, math.Float32bits(f))
}

// DecodeFloat32 reads an IEEE-754 float from 4 little-endian bytes.
func DecodeFloat32(buff []byte) float32 {
	return math.Float32frombits(DecodeUint32(buff))
}

// EncodeFloat64 writes an IEEE-754 double in 8 little-endian bytes.
func EncodeFloat64(buff []byte, f float64) {
	EncodeUint64(buff, math.Float64bits(f))
}

// DecodeFloat64 reads an IEEE-754 double from 8 little-endian bytes.
func DecodeFloat64(buff []byte) float64 {
	return math.Float64frombits(DecodeUint64(buff))
}
