package ir

// Op is a backend operation handle produced by lowering. The IR core never
// inspects it.
type Op any

// OpVector holds one lowered handle per node output.
type OpVector []Op

// LoweringContext receives the lowered handle of every node output.
type LoweringContext interface {
	AssignOutputOp(out Output, op Op)
}

// Kind supplies the per-operator behavior of a node. Every concrete operator
// implements it; a node built without one panics when lowered or cloned.
type Kind interface {
	// Lower emits backend operations for n, one per output, usually through
	// n.ReturnOp or n.ReturnOps.
	Lower(n *Node, lctx LoweringContext) OpVector

	// Clone builds a copy of n on top of the given operands.
	Clone(bc *BuildContext, n *Node, operands []Value) *Node
}
