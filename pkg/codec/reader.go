// Package codec implements the byte-level encoding primitives shared by the
// Bitcoin wire format: little-endian fixed-width integers, CompactSize
// varints, and length-prefixed byte strings, read and written over an
// in-memory buffer with an internal cursor.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader consumes a byte buffer sequentially. All reads advance the internal
// cursor; reading past the end returns an error wrapping io.ErrUnexpectedEOF.
type Reader struct {
	buf []byte
	pos int
}

// NewReader constructs a Reader over buf. The buffer is not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Empty reports whether the cursor has reached the end of the buffer.
func (r *Reader) Empty() bool {
	return r.Remaining() == 0
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("codec: negative read length %d", n)
	}
	if r.Remaining() < n {
		return nil, fmt.Errorf("codec: need %d bytes, have %d: %w",
			n, r.Remaining(), io.ErrUnexpectedEOF)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// PeekUint8 returns the next byte without advancing the cursor.
func (r *Reader) PeekUint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("codec: need 1 byte, have 0: %w", io.ErrUnexpectedEOF)
	}
	return r.buf[r.pos], nil
}

// ReadUint16LE reads a little-endian 16-bit integer.
func (r *Reader) ReadUint16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32LE reads a little-endian 32-bit integer.
func (r *Reader) ReadUint32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64LE reads a little-endian 64-bit integer.
func (r *Reader) ReadUint64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadVarInt reads a Bitcoin CompactSize integer: values below 0xfd occupy a
// single byte, larger values use a discriminator byte followed by a 2, 4 or
// 8 byte little-endian payload.
func (r *Reader) ReadVarInt() (uint64, error) {
	discriminant, err := r.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch discriminant {
	case 0xfd:
		v, err := r.ReadUint16LE()
		return uint64(v), err
	case 0xfe:
		v, err := r.ReadUint32LE()
		return uint64(v), err
	case 0xff:
		return r.ReadUint64LE()
	default:
		return uint64(discriminant), nil
	}
}

// ReadBytes reads n bytes and returns a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytesReversed reads n bytes and returns them in reverse order. Used for
// values that appear on the wire in the opposite byte order from their
// display form, such as transaction ids.
func (r *Reader) ReadBytesReversed(n int) ([]byte, error) {
	out, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ReadVarBytes reads a varint length prefix followed by that many bytes. The
// announced length is bounded against the remaining buffer before any
// allocation so a corrupt prefix cannot trigger a huge allocation.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("codec: var bytes length %d exceeds remaining %d: %w",
			n, r.Remaining(), io.ErrUnexpectedEOF)
	}
	return r.ReadBytes(int(n))
}
