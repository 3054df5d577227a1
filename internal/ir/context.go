package ir

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/irgraph/internal/frames"
	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

// callerSkip is the number of frames between frames.Capture and the code
// that called a public node constructor.
const callerSkip = 3

// BuildContext carries the ambient state of graph construction: the naming
// scope stack and the frontend attributes. Every node built through it
// snapshots both.
//
// A BuildContext belongs to one goroutine at a time and is not synchronized.
// Goroutines building graphs concurrently each use their own.
type BuildContext struct {
	scopes     ScopeStack
	attrs      FrontendAttributes
	shapeCache *ShapeCache
	logger     *slog.Logger
}

// ContextOption customizes a BuildContext.
type ContextOption func(*BuildContext)

// WithShapeCache makes the context use c instead of the process-wide cache.
func WithShapeCache(c *ShapeCache) ContextOption {
	return func(bc *BuildContext) {
		bc.shapeCache = c
	}
}

// WithLogger sets the logger used for construction diagnostics.
func WithLogger(l *slog.Logger) ContextOption {
	return func(bc *BuildContext) {
		bc.logger = l
	}
}

// NewBuildContext returns an empty context.
func NewBuildContext(opts ...ContextOption) *BuildContext {
	bc := &BuildContext{}
	for _, opt := range opts {
		opt(bc)
	}
	if bc.logger == nil {
		bc.logger = slog.Default()
	}
	return bc
}

// ShapeCache returns the cache consulted by NewNodeWithShapeFn.
func (bc *BuildContext) ShapeCache() *ShapeCache {
	if bc.shapeCache == nil {
		return DefaultShapeCache()
	}
	return bc.shapeCache
}

// Logger returns the context logger.
func (bc *BuildContext) Logger() *slog.Logger {
	return bc.logger
}

// Scopes returns the scope stack.
func (bc *BuildContext) Scopes() *ScopeStack {
	return &bc.scopes
}

// Attributes returns the frontend attribute set.
func (bc *BuildContext) Attributes() *FrontendAttributes {
	return &bc.attrs
}

// PushScope opens a naming scope.
func (bc *BuildContext) PushScope(name string) {
	bc.scopes.Push(name)
}

// PopScope closes the innermost naming scope.
func (bc *BuildContext) PopScope() {
	bc.scopes.Pop()
}

// Scope opens a naming scope and returns the function that closes it:
//
//	defer bc.Scope("attention")()
func (bc *BuildContext) Scope(name string) func() {
	bc.scopes.Push(name)
	return bc.scopes.Pop
}

// ResetScopes restarts scope numbering. Panics if a scope is open.
func (bc *BuildContext) ResetScopes() {
	bc.scopes.Reset()
}

// ScopeDepth returns the number of open scopes. Panics if none is open.
func (bc *BuildContext) ScopeDepth() int {
	return bc.scopes.Depth()
}

// CurrentScope returns the "/"-joined path of open scopes.
func (bc *BuildContext) CurrentScope() string {
	return bc.scopes.Current()
}

// PushFrontendAttribute sets an attribute until the returned pusher is popped.
func (bc *BuildContext) PushFrontendAttribute(key, value string, prefixDepth bool) *FrontendAttributePusher {
	return bc.attrs.Push(key, value, prefixDepth)
}

// AddFrontendAttribute sets an attribute outside of any scope. An existing
// value is kept.
func (bc *BuildContext) AddFrontendAttribute(key, value string) bool {
	return bc.attrs.Add(key, value)
}

// RemoveFrontendAttribute deletes an attribute.
func (bc *BuildContext) RemoveFrontendAttribute(key string) {
	bc.attrs.Remove(key)
}

// FrontendAttributes returns a copy of the current attributes.
func (bc *BuildContext) FrontendAttributes() map[string]string {
	return bc.attrs.Snapshot()
}

func (bc *BuildContext) metadata() Metadata {
	return Metadata{
		Scope:              bc.scopes.Current(),
		FrameInfo:          frames.Capture(callerSkip),
		FrontendAttributes: bc.attrs.Snapshot(),
	}
}

// NewLeafNode builds a node without operands. Its hash covers the operator,
// the shape and hashSeed.
func (bc *BuildContext) NewLeafNode(op OpKind, shp shape.Shape, numOutputs int, hashSeed hashing.Hash, opts ...NodeOption) *Node {
	return bc.leaf(op, shp, numOutputs, hashSeed, opts)
}

// NewNode builds a node over operands with a known shape. The node hash
// covers the operator and hashSeed; each operand's hash is folded in, in
// order.
func (bc *BuildContext) NewNode(op OpKind, operands []Value, shp shape.Shape, numOutputs int, hashSeed hashing.Hash, opts ...NodeOption) *Node {
	return bc.construct(op, operands, shp, numOutputs, hashSeed, opts)
}

// NewNodeWithShapeFn builds a node over operands whose shape is inferred by
// shapeFn. The structural hash is computed first and used as the shape cache
// key, so shapeFn only runs for hashes the cache has not seen.
func (bc *BuildContext) NewNodeWithShapeFn(op OpKind, operands []Value, shapeFn func() shape.Shape, numOutputs int, hashSeed hashing.Hash, opts ...NodeOption) *Node {
	n := bc.construct(op, operands, shape.Shape{}, numOutputs, hashSeed, opts)
	n.shape = *bc.ShapeCache().GetOrCompute(n.hash, shapeFn)
	return n
}

func (bc *BuildContext) leaf(op OpKind, shp shape.Shape, numOutputs int, hashSeed hashing.Hash, opts []NodeOption) *Node {
	n := newNode(op, shp, numOutputs, GetOpHash(op, shp, hashSeed), bc.metadata(), opts)
	bc.built(n)
	return n
}

func (bc *BuildContext) construct(op OpKind, operands []Value, shp shape.Shape, numOutputs int, hashSeed hashing.Hash, opts []NodeOption) *Node {
	n := newNode(op, shp, numOutputs, hashing.Combine(op.Hash(), hashSeed), bc.metadata(), opts)
	for _, operand := range operands {
		n.AddOperand(operand.Node, operand.Index)
		n.hash = hashing.Combine(n.hash, operand.Hash())
	}
	bc.built(n)
	return n
}

func (bc *BuildContext) built(n *Node) {
	if bc.logger.Enabled(context.Background(), slog.LevelDebug) {
		bc.logger.Debug("node built", "id", n.id, "op", n.op.Name(), "operands", len(n.operands), "hash", n.hash.String())
	}
}

type buildContextKey struct{}

// WithBuildContext returns a context carrying bc.
func WithBuildContext(ctx context.Context, bc *BuildContext) context.Context {
	return context.WithValue(ctx, buildContextKey{}, bc)
}

// BuildContextFrom returns the BuildContext carried by ctx.
// Panics if there is none.
func BuildContextFrom(ctx context.Context) *BuildContext {
	if bc, ok := ctx.Value(buildContextKey{}).(*BuildContext); ok {
		return bc
	}
	panic(errors.New("ir: build context missing from context"))
}
