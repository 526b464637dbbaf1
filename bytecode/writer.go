package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/errors"
)

// Writer appends little-endian operands to a program buffer.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU16LE writes a little-endian uint16.
func (w *Writer) WriteU16LE(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteU32LE writes a little-endian uint32.
func (w *Writer) WriteU32LE(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

// WriteI32LE writes a little-endian int32.
func (w *Writer) WriteI32LE(v int32) {
	w.WriteU32LE(uint32(v))
}

// WriteU64LE writes a little-endian uint64.
func (w *Writer) WriteU64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.buf.Write(buf[:])
}

// Opcode writes a 4-byte opcode.
func (w *Writer) Opcode(op Opcode) {
	w.WriteU32LE(uint32(op))
}

// Ref writes a 2-byte stack reference.
func (w *Writer) Ref(ref Ref) {
	w.WriteU16LE(uint16(ref))
}

// Dims writes one unsigned 4-byte extent per axis.
func (w *Writer) Dims(dims []int) error {
	for i, d := range dims {
		if d < 0 || uint64(d) > math.MaxUint32 {
			return errors.InvalidData(errors.PhaseEncode, []string{fmt.Sprintf("axis%d", i)},
				fmt.Sprintf("extent %d does not fit in u32", d))
		}
	}
	for _, d := range dims {
		w.WriteU32LE(uint32(d))
	}
	return nil
}

// WriteShape writes a shape operand of rank S.
func WriteShape[S array.Shape](w *Writer, shape S) error {
	return w.Dims(array.Dims(shape))
}

// Range writes one signed (start, end) pair per axis.
func (w *Writer) Range(start, end []int) error {
	if len(start) != len(end) {
		return errors.ShapeMismatch(errors.PhaseEncode, len(start), len(end))
	}
	for i := range start {
		if start[i] < math.MinInt32 || start[i] > math.MaxInt32 ||
			end[i] < math.MinInt32 || end[i] > math.MaxInt32 {
			return errors.InvalidData(errors.PhaseEncode, []string{fmt.Sprintf("axis%d", i)},
				fmt.Sprintf("bounds [%d, %d) do not fit in i32", start[i], end[i]))
		}
	}
	for i := range start {
		w.WriteI32LE(int32(start[i]))
		w.WriteI32LE(int32(end[i]))
	}
	return nil
}

// Mask writes one byte per axis.
func (w *Writer) Mask(mask []bool) {
	for _, m := range mask {
		if m {
			w.buf.WriteByte(1)
		} else {
			w.buf.WriteByte(0)
		}
	}
}

// WriteValue writes a scalar in the natural width of T.
func WriteValue[T array.Elem](w *Writer, v T) {
	switch x := any(v).(type) {
	case bool:
		if x {
			w.buf.WriteByte(1)
		} else {
			w.buf.WriteByte(0)
		}
	case int8:
		w.buf.WriteByte(byte(x))
	case uint8:
		w.buf.WriteByte(x)
	case int16:
		w.WriteU16LE(uint16(x))
	case uint16:
		w.WriteU16LE(x)
	case int32:
		w.WriteU32LE(uint32(x))
	case uint32:
		w.WriteU32LE(x)
	case float32:
		w.WriteU32LE(math.Float32bits(x))
	case int64:
		w.WriteU64LE(uint64(x))
	case uint64:
		w.WriteU64LE(x)
	case float64:
		w.WriteU64LE(math.Float64bits(x))
	}
}

// Scalar writes a boxed scalar, which must hold the Go type of dtype.
func (w *Writer) Scalar(dtype array.DType, v any) error {
	if got := array.DTypeOfValue(v); got != dtype {
		return errors.TypeMismatch(errors.PhaseEncode, []string{"value"}, got.String(), dtype.String())
	}
	switch x := v.(type) {
	case bool:
		WriteValue(w, x)
	case int8:
		WriteValue(w, x)
	case int16:
		WriteValue(w, x)
	case int32:
		WriteValue(w, x)
	case int64:
		WriteValue(w, x)
	case uint8:
		WriteValue(w, x)
	case uint16:
		WriteValue(w, x)
	case uint32:
		WriteValue(w, x)
	case uint64:
		WriteValue(w, x)
	case float32:
		WriteValue(w, x)
	case float64:
		WriteValue(w, x)
	}
	return nil
}
