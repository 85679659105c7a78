// Package buffer implements the growable byte buffer and hashing helpers the
// rest of leech uses for canonical framing and content-addressed ids.
package buffer

import (
	"crypto/sha1"
	"encoding/hex"
	"unicode/utf8"
)

// Buffer is a growable byte vector supporting interior-offset allocation:
// a caller can Reserve N bytes now and fill them in later, which is the
// pattern length-prefixed framing needs.
type Buffer struct {
	data []byte
}

// New returns an empty Buffer with the given initial capacity hint.
func New(capacityHint int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacityHint)}
}

// Len returns the number of bytes currently in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the buffer's contents. The slice aliases the buffer's
// backing array; callers must not retain it across further mutation.
func (b *Buffer) Bytes() []byte { return b.data }

// Write appends p to the buffer and returns its length, satisfying io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) {
	b.data = append(b.data, s...)
}

// WriteRune appends the UTF-8 encoding of r to the buffer.
func (b *Buffer) WriteRune(r rune) (int, error) {
	var enc [utf8.UTFMax]byte
	n := utf8.EncodeRune(enc[:], r)
	b.data = append(b.data, enc[:n]...)
	return n, nil
}

// Reserve grows the buffer by n zero bytes and returns the offset at which
// they start, so the caller can fill them in once the final value is known
// (e.g. a length prefix written after the framed payload is composed).
func (b *Buffer) Reserve(n int) int {
	offset := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return offset
}

// FillAt overwrites the n bytes starting at offset (previously obtained from
// Reserve) with p. len(p) must equal the reserved length.
func (b *Buffer) FillAt(offset int, p []byte) {
	copy(b.data[offset:offset+len(p)], p)
}

// Reset empties the buffer while keeping its backing array.
func (b *Buffer) Reset() { b.data = b.data[:0] }

// BytesToHex lower-case hex encodes src into dst, which must have length
// 2*len(src). It returns the number of bytes written (always len(dst)).
func BytesToHex(src []byte, dst []byte) int {
	return hex.Encode(dst, src)
}

// SHA1Hex returns the lower-case hex SHA-1 digest of data.
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// GenesisID is the canonical 40-character zero id: the parent of the first
// real block in a chain.
const GenesisID = "0000000000000000000000000000000000000000"
