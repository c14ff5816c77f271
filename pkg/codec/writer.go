package codec

import (
	"encoding/binary"
)

// Writer builds a byte buffer sequentially. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter constructs an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer. The slice aliases the Writer's
// internal storage.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteUint16LE appends a little-endian 16-bit integer.
func (w *Writer) WriteUint16LE(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32LE appends a little-endian 32-bit integer.
func (w *Writer) WriteUint32LE(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64LE appends a little-endian 64-bit integer.
func (w *Writer) WriteUint64LE(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteVarInt appends v in Bitcoin CompactSize encoding.
func (w *Writer) WriteVarInt(v uint64) {
	switch {
	case v < 0xfd:
		w.WriteUint8(uint8(v))
	case v <= 0xffff:
		w.WriteUint8(0xfd)
		w.WriteUint16LE(uint16(v))
	case v <= 0xffffffff:
		w.WriteUint8(0xfe)
		w.WriteUint32LE(uint32(v))
	default:
		w.WriteUint8(0xff)
		w.WriteUint64LE(v)
	}
}

// WriteBytes appends b verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBytesReversed appends b in reverse byte order.
func (w *Writer) WriteBytesReversed(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		w.buf = append(w.buf, b[i])
	}
}

// WriteVarBytes appends a varint length prefix followed by b.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteVarInt(uint64(len(b)))
	w.WriteBytes(b)
}

// VarIntSize returns the number of bytes WriteVarInt would emit for v.
func VarIntSize(v uint64) int {
	switch {
	case v < 0xfd:
		return 1
	case v <= 0xffff:
		return 3
	case v <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
