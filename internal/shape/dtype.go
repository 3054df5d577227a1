package shape

// DataType is the element type of an array shape.
type DataType int

// Supported element types.
const (
	Invalid DataType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float16
	BFloat16
	Float32
	Float64
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16, Float16, BFloat16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns the short name used in shape renderings (e.g. "f32").
func (dt DataType) String() string {
	switch dt {
	case Bool:
		return "pred"
	case Int8:
		return "s8"
	case Int16:
		return "s16"
	case Int32:
		return "s32"
	case Int64:
		return "s64"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Float16:
		return "f16"
	case BFloat16:
		return "bf16"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return "invalid"
	}
}
