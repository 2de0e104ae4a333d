package types

import (
	"cmp"
	"encoding/binary"
	"hash/fnv"
	"relcore/pkg/primitives"
)

// fnvHash computes an FNV-1a hash of the given byte slice.
func fnvHash(data []byte) primitives.HashCode {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return primitives.HashCode(h.Sum32())
}

// toBytes64 converts a uint64 value to an 8-byte big-endian slice.
func toBytes64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func threeWay[T cmp.Ordered](a, b T) int {
	return cmp.Compare(a, b)
}
