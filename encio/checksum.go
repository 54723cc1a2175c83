package encio

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC-32C of the concatenated buffers.
func Checksum(buffs ...[]byte) uint32 {
	var sum uint32
	for _, b := range buffs {
		sum = crc32.Update(sum, castagnoli, b)
	}
	return sum
}

// LengthChecksum folds the CRC-32C of a little-endian encoded length into a single byte.
// It guards element length prefixes, where a full checksum would cost more than the length itself.
func LengthChecksum(n uint32) byte {
	var buff [4]byte
	EncodeUint32(buff[:], n)
	sum := crc32.Checksum(buff[:], castagnoli)
	return byte(sum) ^ byte(sum>>8) ^ byte(sum>>16) ^ byte(sum>>24)
}
