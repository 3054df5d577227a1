// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ir_test

import (
	"context"
	"testing"

	"github.com/born-ml/irgraph/ir"
	"github.com/born-ml/irgraph/shape"
)

// TestBuildGraphAPI exercises graph construction through the public aliases.
func TestBuildGraphAPI(t *testing.T) {
	cache, err := ir.NewShapeCache(16, nil)
	if err != nil {
		t.Fatalf("NewShapeCache failed: %v", err)
	}
	bc := ir.NewBuildContext(ir.WithShapeCache(cache))
	ctx := ir.WithBuildContext(context.Background(), bc)

	data := ir.GetOpKind("xla::device_data")
	mm := ir.GetOpKind("aten::mm")

	b := ir.BuildContextFrom(ctx)
	done := b.Scope("linear")
	x := b.NewLeafNode(data, shape.Array(shape.Float32, 8, 16), 1, 1)
	w := b.NewLeafNode(data, shape.Array(shape.Float32, 16, 4), 1, 2)
	y := b.NewNodeWithShapeFn(mm, []ir.Value{{Node: x}, {Node: w}},
		func() shape.Shape { return shape.Array(shape.Float32, 8, 4) }, 1, ir.DefaultHashSeed)
	done()

	if got := y.String(); got != "f32[8,4] aten::mm, scope=linear.1" {
		t.Errorf("String() = %q", got)
	}
	if got := len(x.Uses()); got != 1 {
		t.Errorf("len(x.Uses()) = %d, want 1", got)
	}
	order := ir.PostOrder(y)
	if len(order) != 3 || order[2] != y {
		t.Errorf("PostOrder() = %v", order)
	}
	if x.Hash() != ir.GetOpHash(data, x.NodeShape(), 1) {
		t.Error("leaf hash should equal GetOpHash")
	}
}
