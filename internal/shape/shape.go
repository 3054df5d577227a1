// Package shape describes the output shapes of IR nodes.
//
// A Shape is either an array (element type plus dimensions) or a tuple of
// shapes, one per output of a multi-output node. The zero Shape is the empty
// placeholder used while a node's real shape is still being inferred.
package shape

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape is an array or tuple shape. Shapes are treated as immutable values.
type Shape struct {
	dtype   DataType
	dims    []int
	tuple   []Shape
	isTuple bool
}

// Array returns an array shape with the given element type and dimensions.
func Array(dtype DataType, dims ...int) Shape {
	return Shape{dtype: dtype, dims: append([]int(nil), dims...)}
}

// Scalar returns a rank-0 array shape.
func Scalar(dtype DataType) Shape {
	return Shape{dtype: dtype}
}

// Tuple returns a tuple shape holding copies of the given element shapes.
func Tuple(shapes ...Shape) Shape {
	elems := make([]Shape, len(shapes))
	for i, s := range shapes {
		elems[i] = s.Clone()
	}
	return Shape{tuple: elems, isTuple: true}
}

// IsTuple reports whether s is a tuple shape.
func (s Shape) IsTuple() bool {
	return s.isTuple
}

// IsEmpty reports whether s is the zero placeholder shape.
func (s Shape) IsEmpty() bool {
	return !s.isTuple && s.dtype == Invalid && len(s.dims) == 0
}

// DType returns the element type of an array shape.
func (s Shape) DType() DataType {
	return s.dtype
}

// Dims returns a copy of the dimensions of an array shape.
func (s Shape) Dims() []int {
	return append([]int(nil), s.dims...)
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s.dims)
}

// TupleSize returns the number of tuple elements, or 0 for array shapes.
func (s Shape) TupleSize() int {
	return len(s.tuple)
}

// TupleShape returns the i-th element of a tuple shape.
// Panics if s is not a tuple or i is out of range.
func (s Shape) TupleShape(i int) Shape {
	if !s.isTuple {
		panic(errors.Errorf("shape.TupleShape: %s is not a tuple", s))
	}
	if i < 0 || i >= len(s.tuple) {
		panic(errors.Errorf("shape.TupleShape: index %d out of range for %s", i, s))
	}
	return s.tuple[i]
}

// TupleShapes returns a copy of the tuple elements.
func (s Shape) TupleShapes() []Shape {
	return append([]Shape(nil), s.tuple...)
}

// NumElements returns the number of elements of an array shape.
func (s Shape) NumElements() int {
	if len(s.dims) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s.dims {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is non-negative, recursively for tuples.
func (s Shape) Validate() error {
	if s.isTuple {
		for i, elem := range s.tuple {
			if err := elem.Validate(); err != nil {
				return errors.Wrapf(err, "tuple element %d", i)
			}
		}
		return nil
	}
	for i, dim := range s.dims {
		if dim < 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if s.isTuple != other.isTuple || s.dtype != other.dtype {
		return false
	}
	if len(s.dims) != len(other.dims) || len(s.tuple) != len(other.tuple) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != other.dims[i] {
			return false
		}
	}
	for i := range s.tuple {
		if !s.tuple[i].Equal(other.tuple[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	c := Shape{dtype: s.dtype, isTuple: s.isTuple}
	if s.dims != nil {
		c.dims = append([]int(nil), s.dims...)
	}
	if s.tuple != nil {
		c.tuple = make([]Shape, len(s.tuple))
		for i, elem := range s.tuple {
			c.tuple[i] = elem.Clone()
		}
	}
	return c
}

// String renders the shape canonically, e.g. "f32[2,3]" or "(f32[2], s64[])".
// Structural hashing depends on this rendering being stable.
func (s Shape) String() string {
	var sb strings.Builder
	s.write(&sb)
	return sb.String()
}

func (s Shape) write(sb *strings.Builder) {
	if s.isTuple {
		sb.WriteByte('(')
		for i, elem := range s.tuple {
			if i > 0 {
				sb.WriteString(", ")
			}
			elem.write(sb)
		}
		sb.WriteByte(')')
		return
	}
	sb.WriteString(s.dtype.String())
	sb.WriteByte('[')
	for i, dim := range s.dims {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(dim))
	}
	sb.WriteByte(']')
}
