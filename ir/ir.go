// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ir

import (
	"context"
	"log/slog"

	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/ir"
	"github.com/born-ml/irgraph/shape"
)

// Type aliases for public API

// Hash is a structural hash value.
type Hash = hashing.Hash

// Node is a vertex of the IR graph.
type Node = ir.Node

// Output names one result of a node.
type Output = ir.Output

// Value is the handle graph-building code passes around for a node result.
type Value = ir.Value

// Use records a consumer edge on a producer node.
type Use = ir.Use

// OpKind identifies an operator by interned name.
type OpKind = ir.OpKind

// Metadata is the debugging information captured on node construction.
type Metadata = ir.Metadata

// BuildContext carries naming scopes and frontend attributes.
type BuildContext = ir.BuildContext

// ScopeStack is a stack of auto-numbered naming scopes.
type ScopeStack = ir.ScopeStack

// FrontendAttributes is a set of backend hint annotations.
type FrontendAttributes = ir.FrontendAttributes

// FrontendAttributePusher restores one attribute when popped.
type FrontendAttributePusher = ir.FrontendAttributePusher

// ShapeCache memoizes inferred shapes by structural hash.
type ShapeCache = ir.ShapeCache

// ShapeCacheStats reports shape cache activity.
type ShapeCacheStats = ir.ShapeCacheStats

// Kind supplies per-operator lowering and cloning.
type Kind = ir.Kind

// LoweringContext receives lowered outputs.
type LoweringContext = ir.LoweringContext

// Op is a lowered backend operation handle.
type Op = ir.Op

// OpVector holds one lowered handle per output.
type OpVector = ir.OpVector

// NodeOption customizes node construction.
type NodeOption = ir.NodeOption

// ContextOption customizes a BuildContext.
type ContextOption = ir.ContextOption

// DefaultHashSeed is the seed for nodes without extra hashed state.
const DefaultHashSeed = ir.DefaultHashSeed

// GetOpKind returns the interned OpKind for name.
func GetOpKind(name string) OpKind {
	return ir.GetOpKind(name)
}

// GetOpHash hashes an operator, a shape and a seed.
func GetOpHash(op OpKind, s shape.Shape, seed Hash) Hash {
	return ir.GetOpHash(op, s, seed)
}

// NewBuildContext returns an empty build context.
func NewBuildContext(opts ...ContextOption) *BuildContext {
	return ir.NewBuildContext(opts...)
}

// WithShapeCache makes a build context use c.
func WithShapeCache(c *ShapeCache) ContextOption {
	return ir.WithShapeCache(c)
}

// WithLogger sets the build context logger.
func WithLogger(l *slog.Logger) ContextOption {
	return ir.WithLogger(l)
}

// WithKind attaches an operator implementation to a node.
func WithKind(k Kind) NodeOption {
	return ir.WithKind(k)
}

// NewShapeCache creates a shape cache with the given capacity.
func NewShapeCache(capacity int, logger *slog.Logger) (*ShapeCache, error) {
	return ir.NewShapeCache(capacity, logger)
}

// DefaultShapeCache returns the process-wide shape cache.
func DefaultShapeCache() *ShapeCache {
	return ir.DefaultShapeCache()
}

// WithBuildContext returns a context carrying bc.
func WithBuildContext(ctx context.Context, bc *BuildContext) context.Context {
	return ir.WithBuildContext(ctx, bc)
}

// BuildContextFrom returns the build context carried by ctx.
func BuildContextFrom(ctx context.Context) *BuildContext {
	return ir.BuildContextFrom(ctx)
}

// PostOrder lists the nodes reachable from roots, operands first.
func PostOrder(roots ...*Node) []*Node {
	return ir.PostOrder(roots...)
}
