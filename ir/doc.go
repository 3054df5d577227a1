// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ir provides the public API of the lazy tensor IR graph.
//
// # Overview
//
// Front ends record tensor operations as graph nodes instead of executing
// them. Each Node holds an operator (OpKind), operand edges to the nodes it
// consumes, and the shape of its outputs. The graph is later lowered to a
// backend program by walking it in PostOrder and calling Node.Lower.
//
// # Building Graphs
//
//	bc := ir.NewBuildContext()
//	defer bc.Scope("encoder")()
//
//	x := bc.NewLeafNode(ir.GetOpKind("xla::device_data"), shape.Array(shape.Float32, 8, 16), 1, 1)
//	w := bc.NewLeafNode(ir.GetOpKind("xla::device_data"), shape.Array(shape.Float32, 16, 4), 1, 2)
//	y := bc.NewNodeWithShapeFn(ir.GetOpKind("aten::mm"), []ir.Value{{Node: x}, {Node: w}},
//	    func() shape.Shape { return shape.Array(shape.Float32, 8, 4) }, 1, ir.DefaultHashSeed)
//
// # Hashing and Shape Inference
//
// Node.Hash covers the operator, a seed and every operand hash, so equal
// hashes identify interchangeable subgraphs. Shapes computed through
// NewNodeWithShapeFn are memoized by hash in a ShapeCache whose capacity is
// set by IR_SHAPE_CACHE_SIZE (default 4096).
//
// # Annotations
//
// Naming scopes ("encoder.1/attention.2") and frontend attributes set on the
// BuildContext are copied onto every node built under them. With IR_DEBUG=1
// nodes also record the call site that built them.
//
// # Graph Rewriting
//
// Node.ReplaceOperand and Node.ReplaceAllUsesWith move edges and their
// reverse uses. Neither recomputes the hashes of the rewritten consumers.
package ir
