package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/irgraph/internal/config"
	"github.com/born-ml/irgraph/internal/frames"
	"github.com/born-ml/irgraph/internal/parallel"
	"github.com/born-ml/irgraph/ir"
	"github.com/born-ml/irgraph/shape"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Build a demo graph and print it",
	Long: `Dump builds a small two-layer graph under naming scopes and frontend
attributes, lowers it to a textual program and prints every node with its uses.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().String("config", "", "TOML configuration file")
	dumpCmd.Flags().Bool("debug", false, "capture source frames and log at debug level")
	dumpCmd.Flags().Int("replicas", 1, "number of copies of the graph built concurrently")
}

func runDump(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	prev := frames.SetEnabled(cfg.Debug)
	defer frames.SetEnabled(prev)

	cache, err := ir.NewShapeCache(cfg.ShapeCacheSize, logger)
	if err != nil {
		return errors.Wrap(err, "dump")
	}
	replicas, _ := cmd.Flags().GetInt("replicas")
	if replicas < 1 {
		return errors.Errorf("dump: replicas must be at least 1, got %d", replicas)
	}

	graphs, err := buildReplicas(cmd.Context(), replicas, cache, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, g := range graphs {
			g.release()
		}
	}()

	w := cmd.OutOrStdout()
	if replicas > 1 {
		fmt.Fprintf(w, "replicas: %d\n", replicas)
	}
	return writeDump(w, graphs[0], cache.Stats())
}

// buildReplicas builds n copies of the demo graph in parallel. Each job gets
// its own build context; all of them share cache.
func buildReplicas(ctx context.Context, n int, cache *ir.ShapeCache, logger *slog.Logger) ([]*demoGraph, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	graphs := make([]*demoGraph, n)
	err := parallel.For(ctx, n, parallel.DefaultConfig(), func(ctx context.Context, i int) error {
		bc := ir.NewBuildContext(ir.WithShapeCache(cache), ir.WithLogger(logger.With("replica", i)))
		graphs[i] = buildDemo(ir.WithBuildContext(ctx, bc))
		return nil
	})
	if err != nil {
		for _, g := range graphs {
			if g != nil {
				g.release()
			}
		}
		return nil, errors.Wrap(err, "building graphs")
	}
	return graphs, nil
}

// demoGraph holds the creator references of a built demo graph.
type demoGraph struct {
	nodes []*ir.Node
	roots []*ir.Node
}

func (g *demoGraph) release() {
	for i := len(g.nodes) - 1; i >= 0; i-- {
		g.nodes[i].Release()
	}
}

var (
	opDeviceData = ir.GetOpKind("xla::device_data")
	opMatMul     = ir.GetOpKind("aten::mm")
	opAdd        = ir.GetOpKind("aten::add")
	opRelu       = ir.GetOpKind("aten::relu")
	opSplit      = ir.GetOpKind("aten::split")
)

func buildDemo(ctx context.Context) *demoGraph {
	bc := ir.BuildContextFrom(ctx)
	g := &demoGraph{}
	keep := func(n *ir.Node) *ir.Node {
		g.nodes = append(g.nodes, n)
		return n
	}
	kind := ir.WithKind(textKind{})

	x := keep(bc.NewLeafNode(opDeviceData, shape.Array(shape.Float32, 8, 16), 1, 1, kind))

	stage := bc.PushFrontendAttribute("_pipeline_stage", "0", false)
	h := x
	for layer, width := range []int{32, 16} {
		done := bc.Scope("linear")
		in := h.Shape(0).Dims()[1]
		w := keep(bc.NewLeafNode(opDeviceData, shape.Array(shape.Float32, in, width), 1, ir.Hash(layer+2), kind))
		mm := keep(bc.NewNodeWithShapeFn(opMatMul, []ir.Value{{Node: h}, {Node: w}},
			matMulShape(h.Shape(0), w.Shape(0)), 1, ir.DefaultHashSeed, kind))
		b := keep(bc.NewLeafNode(opDeviceData, shape.Array(shape.Float32, 8, width), 1, ir.Hash(layer+10), kind))
		sum := keep(bc.NewNodeWithShapeFn(opAdd, []ir.Value{{Node: mm}, {Node: b}},
			sameShape(mm.Shape(0)), 1, ir.DefaultHashSeed, kind))
		h = keep(bc.NewNodeWithShapeFn(opRelu, []ir.Value{{Node: sum}},
			sameShape(sum.Shape(0)), 1, ir.DefaultHashSeed, kind))
		done()
	}
	stage.Pop()

	halves := shape.Array(shape.Float32, 4, 16)
	split := keep(bc.NewNode(opSplit, []ir.Value{{Node: h}}, shape.Tuple(halves, halves), 2, ir.DefaultHashSeed, kind))
	g.roots = append(g.roots, split)
	return g
}

func matMulShape(a, b shape.Shape) func() shape.Shape {
	return func() shape.Shape {
		return shape.Array(a.DType(), a.Dims()[0], b.Dims()[1])
	}
}

func sameShape(s shape.Shape) func() shape.Shape {
	return func() shape.Shape { return s.Clone() }
}

func writeDump(w io.Writer, g *demoGraph, stats ir.ShapeCacheStats) error {
	order := ir.PostOrder(g.roots...)
	lctx := newTextLowering()

	fmt.Fprintln(w, "nodes:")
	for _, n := range order {
		n.Lower(lctx)
		fmt.Fprintf(w, "  [%d] %s hash=%s\n", n.ID(), n, n.Hash())
		if attrs := n.Metadata().FrontendAttributes; len(attrs) > 0 {
			fmt.Fprintf(w, "      attributes: %v\n", attrs)
		}
		for _, u := range n.Uses() {
			fmt.Fprintf(w, "      use: %s\n", u)
		}
	}

	fmt.Fprintln(w, "program:")
	for _, line := range lctx.lines {
		fmt.Fprintf(w, "  %s\n", line)
	}

	_, err := fmt.Fprintf(w, "shape cache: hits=%d misses=%d len=%d capacity=%d\n",
		stats.Hits, stats.Misses, stats.Len, stats.Capacity)
	return err
}

// textLowering lowers nodes into one SSA-style text line per node.
type textLowering struct {
	ops   map[ir.Output]ir.Op
	lines []string
}

func newTextLowering() *textLowering {
	return &textLowering{ops: make(map[ir.Output]ir.Op)}
}

func (l *textLowering) AssignOutputOp(out ir.Output, op ir.Op) {
	l.ops[out] = op
}

func (l *textLowering) outputOp(out ir.Output) ir.Op {
	op, ok := l.ops[out]
	if !ok {
		panic(errors.Errorf("operand %s lowered out of order", out))
	}
	return op
}

// textKind renders any operator as "%id = name(operands) : shape".
type textKind struct{}

func (textKind) Lower(n *ir.Node, lctx ir.LoweringContext) ir.OpVector {
	l := lctx.(*textLowering)
	args := make([]string, n.NumOperands())
	for i := range args {
		args[i] = fmt.Sprint(l.outputOp(n.Operand(i)))
	}
	name := fmt.Sprintf("%%%d", n.ID())
	l.lines = append(l.lines, fmt.Sprintf("%s = %s(%s) : %s", name, n.Op(), strings.Join(args, ", "), n.NodeShape()))

	if n.NumOutputs() == 1 {
		return n.ReturnOp(name, lctx)
	}
	ops := make([]ir.Op, n.NumOutputs())
	for i := range ops {
		ops[i] = fmt.Sprintf("%s#%d", name, i)
	}
	return n.ReturnOps(ops, lctx)
}

func (k textKind) Clone(bc *ir.BuildContext, n *ir.Node, operands []ir.Value) *ir.Node {
	if len(operands) == 0 {
		return bc.NewLeafNode(n.Op(), n.NodeShape(), n.NumOutputs(), n.NodeHash(), ir.WithKind(k))
	}
	return bc.NewNode(n.Op(), operands, n.NodeShape(), n.NumOutputs(), ir.DefaultHashSeed, ir.WithKind(k))
}
