package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/errors"
)

// Opcode is an index into the operation table.
type Opcode uint32

// Ref indexes a stack slot counted from the bottom of the stack.
type Ref uint16

// Reader is a cursor over a program with position tracking and
// little-endian operand readers.
type Reader struct {
	code []byte
	pos  int
}

// NewReader creates a Reader positioned at the start of code.
func NewReader(code []byte) *Reader {
	return &Reader{code: code}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the total program length.
func (r *Reader) Len() int {
	return len(r.code)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.code) - r.pos
}

// Done reports whether the cursor reached the end of the program.
func (r *Reader) Done() bool {
	return r.pos >= len(r.code)
}

// Reset seeks to the given position.
func (r *Reader) Reset(pos int) error {
	if pos < 0 || pos > len(r.code) {
		return errors.InvalidData(errors.PhaseDecode, []string{"seek"},
			fmt.Sprintf("position %d outside program of length %d", pos, len(r.code)))
	}
	r.pos = pos
	return nil
}

func (r *Reader) take(n int, operand string) ([]byte, error) {
	if n > r.Remaining() {
		return nil, errors.Truncated(errors.PhaseDecode, operand, r.pos, n)
	}
	b := r.code[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1, "byte")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads exactly n bytes. The result aliases the program.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n, "bytes")
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	b, err := r.take(2, "u16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.take(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32LE reads a little-endian int32.
func (r *Reader) ReadI32LE() (int32, error) {
	v, err := r.ReadU32LE()
	return int32(v), err
}

// ReadU64LE reads a little-endian uint64.
func (r *Reader) ReadU64LE() (uint64, error) {
	b, err := r.take(8, "u64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadOpcode reads a 4-byte opcode.
func (r *Reader) ReadOpcode() (Opcode, error) {
	b, err := r.take(4, "opcode")
	if err != nil {
		return 0, err
	}
	return Opcode(binary.LittleEndian.Uint32(b)), nil
}

// ReadRef reads a 2-byte stack reference.
func (r *Reader) ReadRef() (Ref, error) {
	b, err := r.take(2, "ref")
	if err != nil {
		return 0, err
	}
	return Ref(binary.LittleEndian.Uint16(b)), nil
}

// ReadDims reads rank unsigned 4-byte extents. Extents whose product does
// not fit in int are rejected with KindInvalidData.
func (r *Reader) ReadDims(rank int) ([]int, error) {
	pos := r.pos
	b, err := r.take(4*rank, "shape")
	if err != nil {
		return nil, err
	}
	dims := make([]int, rank)
	for i := range dims {
		dims[i] = int(binary.LittleEndian.Uint32(b[4*i:]))
	}
	if err := checkDims(dims, pos); err != nil {
		return nil, err
	}
	return dims, nil
}

// ReadShape reads a shape operand of rank S with the checks of ReadDims.
func ReadShape[S array.Shape](r *Reader) (S, error) {
	var shape S
	dims, err := r.ReadDims(len(shape))
	if err != nil {
		return shape, err
	}
	for i := 0; i < len(shape); i++ {
		shape[i] = dims[i]
	}
	return shape, nil
}

func checkDims(dims []int, pos int) error {
	if _, err := array.CheckedSizeOf(dims); err != nil {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path("shape").
			Value(pos).
			Detail("shape %v at position %d has no representable element count", dims, pos).
			Cause(err).
			Build()
	}
	return nil
}

// ReadRange reads rank signed (start, end) pairs as half-open spans.
// Negative bounds count from the end of their axis.
func (r *Reader) ReadRange(rank int) ([]array.Span, error) {
	b, err := r.take(8*rank, "range")
	if err != nil {
		return nil, err
	}
	spans := make([]array.Span, rank)
	for i := range spans {
		start := int32(binary.LittleEndian.Uint32(b[8*i:]))
		end := int32(binary.LittleEndian.Uint32(b[8*i+4:]))
		spans[i] = array.Between(int(start), int(end))
	}
	return spans, nil
}

// ReadMask reads rank single-byte booleans.
func (r *Reader) ReadMask(rank int) ([]bool, error) {
	b, err := r.take(rank, "mask")
	if err != nil {
		return nil, err
	}
	mask := make([]bool, rank)
	for i := range mask {
		mask[i] = b[i] != 0
	}
	return mask, nil
}

// ReadValue reads a scalar in the natural width of T.
func ReadValue[T array.Elem](r *Reader) (T, error) {
	var v T
	b, err := r.take(array.DTypeOf[T]().Size(), "value")
	if err != nil {
		return v, err
	}
	switch p := any(&v).(type) {
	case *bool:
		*p = b[0] != 0
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(b))
	case *uint64:
		*p = binary.LittleEndian.Uint64(b)
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return v, nil
}

// ReadScalar reads a scalar of a run-time dtype and returns it boxed.
func (r *Reader) ReadScalar(dtype array.DType) (any, error) {
	switch dtype {
	case array.Bool:
		return ReadValue[bool](r)
	case array.Int8:
		return ReadValue[int8](r)
	case array.Int16:
		return ReadValue[int16](r)
	case array.Int32:
		return ReadValue[int32](r)
	case array.Int64:
		return ReadValue[int64](r)
	case array.Uint8:
		return ReadValue[uint8](r)
	case array.Uint16:
		return ReadValue[uint16](r)
	case array.Uint32:
		return ReadValue[uint32](r)
	case array.Uint64:
		return ReadValue[uint64](r)
	case array.Float32:
		return ReadValue[float32](r)
	case array.Float64:
		return ReadValue[float64](r)
	default:
		return nil, errors.Unsupported(errors.PhaseDecode, "scalar of dtype "+dtype.String())
	}
}
