// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package shape provides the public shape types of the IR graph.
//
// Example:
//
//	s := shape.Array(shape.Float32, 2, 3)  // "f32[2,3]"
//	t := shape.Tuple(s, shape.Scalar(shape.Int64))
package shape

import (
	"github.com/born-ml/irgraph/internal/shape"
)

// Shape is an array or tuple shape.
type Shape = shape.Shape

// DataType is the element type of an array shape.
type DataType = shape.DataType

// Element types.
const (
	Invalid  DataType = shape.Invalid
	Bool     DataType = shape.Bool
	Int8     DataType = shape.Int8
	Int16    DataType = shape.Int16
	Int32    DataType = shape.Int32
	Int64    DataType = shape.Int64
	Uint8    DataType = shape.Uint8
	Uint16   DataType = shape.Uint16
	Uint32   DataType = shape.Uint32
	Uint64   DataType = shape.Uint64
	Float16  DataType = shape.Float16
	BFloat16 DataType = shape.BFloat16
	Float32  DataType = shape.Float32
	Float64  DataType = shape.Float64
)

// Array returns an array shape.
func Array(dtype DataType, dims ...int) Shape {
	return shape.Array(dtype, dims...)
}

// Scalar returns a rank-0 array shape.
func Scalar(dtype DataType) Shape {
	return shape.Scalar(dtype)
}

// Tuple returns a tuple shape.
func Tuple(shapes ...Shape) Shape {
	return shape.Tuple(shapes...)
}
