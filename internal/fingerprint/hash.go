// Package fingerprint computes the content-based, collision-resistant
// hashes the build graph and module cache rely on.
//
// Every hash in this package is BLAKE3 (lukechampine.com/blake3): byte-exact
// reproducible across runs and platforms given identical inputs, with no
// text normalization beyond UTF-8 encoding and path-separator
// canonicalization. Hashes are framed so the build graph can fingerprint
// heterogeneous ordered field lists, not just single byte strings.
package fingerprint

import (
	"encoding/binary"
	"path/filepath"

	"lukechampine.com/blake3"
)

// Hash is a 32-byte BLAKE3 digest rendered as a 64-character lowercase hex
// string, with no prefix.
type Hash string

// Builder accumulates a canonical, length-framed byte stream and reduces it
// to a single BLAKE3 digest. Framing each field with its length prevents two
// different field sequences from hashing to the same byte stream (e.g.
// ["ab", "c"] vs ["a", "bc"]), which a naive concatenation would not.
type Builder struct {
	h *blake3.Hasher
}

// NewBuilder starts a fresh canonical hash stream.
func NewBuilder() *Builder {
	return &Builder{h: blake3.New(32, nil)}
}

// WriteString frames and writes a UTF-8 string field.
func (b *Builder) WriteString(s string) *Builder {
	return b.WriteBytes([]byte(s))
}

// WriteBytes frames and writes a raw byte field.
func (b *Builder) WriteBytes(p []byte) *Builder {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
	_, _ = b.h.Write(lenBuf[:])
	_, _ = b.h.Write(p)
	return b
}

// WriteUint64 frames and writes a fixed-width integer field (sizes, line
// numbers, schema versions — anything where byte order must be stable
// across platforms).
func (b *Builder) WriteUint64(v uint64) *Builder {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = b.h.Write(buf[:])
	return b
}

// Sum finalizes the stream and returns its digest.
func (b *Builder) Sum() Hash {
	sum := b.h.Sum(nil)
	return Hash(hexEncode(sum))
}

const hexDigits = "0123456789abcdef"

func hexEncode(p []byte) string {
	out := make([]byte, len(p)*2)
	for i, c := range p {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}

// Bytes hashes a single byte slice in one shot.
func Bytes(p []byte) Hash {
	sum := blake3.Sum256(p)
	return Hash(hexEncode(sum[:]))
}

// String hashes a single UTF-8 string in one shot.
func String(s string) Hash {
	return Bytes([]byte(s))
}

// NormalizePath canonicalizes a file path for fingerprinting and id
// generation: forward slashes, no "./" prefix, cleaned, and with any
// leading "/" stripped so the same relative path fingerprints identically
// whether it arrived absolute or relative.
func NormalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
