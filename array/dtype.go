package array

// Elem is the set of element types that can cross the erasure boundary.
// Every member maps to exactly one DType.
type Elem interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Signed is the set of signed integer element types.
type Signed interface {
	int8 | int16 | int32 | int64
}

// Unsigned is the set of unsigned integer element types.
type Unsigned interface {
	uint8 | uint16 | uint32 | uint64
}

// Integer is the set of integer element types.
type Integer interface {
	Signed | Unsigned
}

// Float is the set of floating point element types.
type Float interface {
	float32 | float64
}

// Number is the set of numeric element types.
type Number interface {
	Integer | Float
}

// DType is the runtime tag of an element type.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// DTypes lists every valid element type in table order.
var DTypes = []DType{Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64}

var dtypeNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int8:    "i8",
	Int16:   "i16",
	Int32:   "i32",
	Int64:   "i64",
	Uint8:   "u8",
	Uint16:  "u16",
	Uint32:  "u32",
	Uint64:  "u64",
	Float32: "f32",
	Float64: "f64",
}

// String returns the short name used in operation names, e.g. "i32".
func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return "invalid"
}

// Size returns the byte width of one element.
func (d DType) Size() int {
	switch d {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func (d DType) IsBool() bool    { return d == Bool }
func (d DType) IsFloat() bool   { return d == Float32 || d == Float64 }
func (d DType) IsInteger() bool { return d >= Int8 && d <= Uint64 }
func (d DType) IsNumber() bool  { return d.IsInteger() || d.IsFloat() }

// ParseDType looks up a dtype by its short name.
func ParseDType(name string) (DType, bool) {
	for _, d := range DTypes {
		if dtypeNames[d] == name {
			return d, true
		}
	}
	return Invalid, false
}

// DTypeOf returns the tag for T, or Invalid when T is not an Elem type.
func DTypeOf[T any]() DType {
	var zero T
	return DTypeOfValue(zero)
}

// DTypeOfValue returns the tag for the dynamic type of v.
func DTypeOfValue(v any) DType {
	switch v.(type) {
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Invalid
	}
}
