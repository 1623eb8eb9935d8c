package binary

import "io"

// SafeWriter wraps io.Writer with position tracking and a byte order.
type SafeWriter struct {
	w      io.Writer
	offset int64
	endian Endianness
}

// NewSafeWriter creates a new big-endian SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w, endian: BigEndian}
}

// NewSafeWriterEndian creates a SafeWriter using endian for Put.
func NewSafeWriterEndian(w io.Writer, endian Endianness) *SafeWriter {
	return &SafeWriter{w: w, endian: endian}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// Pad writes zero bytes until Offset is a multiple of align.
func (sw *SafeWriter) Pad(align int64) error {
	if rem := sw.offset % align; rem != 0 {
		return sw.WriteBytes(make([]byte, align-rem))
	}
	return nil
}

// Put writes val in the writer's own byte order.
func Put[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, sw.endian))
}

// Write writes a value of type T in big-endian byte order.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, BigEndian))
}

// Encode returns val encoded in the given byte order.
func Encode[T uint8 | uint16 | uint32 | uint64](val T, endian Endianness) []byte {
	return encode(val, endian)
}
