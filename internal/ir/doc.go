// Package ir builds the lazy tensor IR graph.
//
// Every tensor operation issued by a front end becomes a Node: an operator
// (OpKind), its operand edges, and the shape of its outputs. Nodes are
// hashed structurally, so two nodes built from the same operator, seed and
// operand hashes share a hash, and shape inference results are memoized in a
// ShapeCache keyed by that hash.
//
// Graph construction runs through a BuildContext, which carries the naming
// scopes and frontend attributes copied onto each node:
//
//	bc := ir.NewBuildContext()
//	defer bc.Scope("layer")()
//	x := bc.NewLeafNode(ir.GetOpKind("xla::device_data"), shape.Array(shape.Float32, 2, 3), 1, seed)
//	y := bc.NewNodeWithShapeFn(ir.GetOpKind("aten::relu"), []ir.Value{{Node: x}},
//	    func() shape.Shape { return x.NodeShape() }, 1, ir.DefaultHashSeed)
//
// Nodes keep reverse edges (uses) so optimization passes can rewrite the
// graph with ReplaceOperand and ReplaceAllUsesWith. Lowering to a backend is
// delegated to the node's Kind.
//
// Invalid indices and unbalanced scope operations are programming errors and
// panic.
package ir
