// Package hashing provides the structural hash used to identify IR nodes.
//
// Hashes are 64-bit xxhash values. Combine folds values left to right, so the
// result depends on argument order.
package hashing

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash is a structural hash value.
type Hash uint64

// Zero is the hash of nothing. Combine(Zero) is not Zero.
const Zero Hash = 0

// String hashes a string.
func String(s string) Hash {
	return Hash(xxhash.Sum64String(s))
}

// Bytes hashes a byte slice.
func Bytes(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// Int hashes an integer value.
func Int(v uint64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return Hash(xxhash.Sum64(buf[:]))
}

// Combine folds each value of rest into h in order.
func Combine(h Hash, rest ...Hash) Hash {
	var buf [16]byte
	for _, r := range rest {
		binary.LittleEndian.PutUint64(buf[:8], uint64(h))
		binary.LittleEndian.PutUint64(buf[8:], uint64(r))
		h = Hash(xxhash.Sum64(buf[:]))
	}
	return h
}

// String renders the hash as fixed-width hex.
func (h Hash) String() string {
	s := strconv.FormatUint(uint64(h), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}
