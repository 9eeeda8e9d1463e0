// Package hash computes the digests used to identify schematic content.
package hash

import (
	"crypto/sha256"

	"github.com/cespare/xxhash/v2"
)

// Digest computes the xxHash64 of raw schematic bytes.
//
// The batch runner keys duplicate detection on it and confirms a hit with Sum.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// SumSize is the size of a Sum in bytes.
const SumSize = sha256.Size

// Sum computes the SHA-256 of raw schematic bytes. Unlike Digest it is
// collision resistant, so equal sums stand for equal content.
func Sum(data []byte) [SumSize]byte {
	return sha256.Sum256(data)
}
