// Package plan turns one image field plus its configured layer stack into a
// linear computation-graph fragment. Validation runs over the whole stack
// before the first node is created, so a rejected stack leaves nothing
// behind.
package plan

import (
	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/graph"
	"github.com/mkrawiec/fieldgraph/layers"
	"github.com/mkrawiec/fieldgraph/layout"
	"github.com/mkrawiec/fieldgraph/schema"
)

// Builder configures how field chains are built. The zero value uses the
// schema default providers and the legacy shape policy.
type Builder struct {
	Dims     schema.DimensionsProvider // nil means schema.DefaultDimensions
	Channels schema.ChannelsProvider   // nil means schema.DefaultChannels
	Policy   Policy                    // nil means LegacyPolicy{}
}

// Result is the outcome of building one field's chain.
type Result struct {
	// OutputNode is the terminal reshape node of the chain.
	OutputNode *graph.Node
	// OutputShape is the flattened feature shape leaving the chain.
	OutputShape *layout.TensorShape
	// ExtraNodes carries side nodes a layer expansion may need. Every current
	// layer kind expands to exactly one node, so the list is always empty.
	ExtraNodes []*graph.Node
	// Chain lists the emitted nodes in stage order, reshape last. The
	// caller's input node is not included.
	Chain []*graph.Node
}

// Build compiles a field's layer stack into a chain of named nodes hanging
// off the given input node. Stage i gets one node whose only input is stage
// i-1, and a terminal reshape collapses the final shape to a feature vector
// of length channels*width*height. Equal inputs build structurally equal
// results.
func (b *Builder) Build(f schema.Field, stack layers.Stack, input *graph.Node) (*Result, error) {
	if input == nil {
		return nil, faults.New(faults.ErrCodePrecondition,
			"field %q has no input node", f.VariableName)
	}
	if len(stack) == 0 {
		return nil, faults.New(faults.ErrCodePrecondition,
			"field %q has an empty layer stack", f.VariableName)
	}

	shapes, err := b.shapes(f, stack)
	if err != nil {
		return nil, err
	}

	chain := make([]*graph.Node, 0, len(stack)+1)
	prev := input
	for i, d := range stack {
		op, _ := opFor(d)
		n := &graph.Node{
			Name:   graph.NodeName(f.VariableName, i, op),
			Op:     op,
			Attrs:  nodeAttrs(d),
			Inputs: []*graph.Node{prev},
		}
		chain = append(chain, n)
		prev = n
	}

	final := shapes[len(shapes)-1]
	length := final.Flat()
	reshape := &graph.Node{
		Name:   graph.NodeName(f.VariableName, len(stack), graph.OpReshape),
		Op:     graph.OpReshape,
		Attrs:  map[string]any{"length": length},
		Inputs: []*graph.Node{prev},
	}
	chain = append(chain, reshape)

	return &Result{
		OutputNode:  reshape,
		OutputShape: layout.Flattened(f.VariableName, length),
		ExtraNodes:  []*graph.Node{},
		Chain:       chain,
	}, nil
}

// Trace folds the stack over the field's resolved shape without emitting any
// nodes. The result has one entry per stage plus the initial shape at index
// zero.
func (b *Builder) Trace(f schema.Field, stack layers.Stack) ([]Shape, error) {
	return b.shapes(f, stack)
}

// shapes validates the field and the whole stack, then runs the shape fold.
// Shape faults carry the stage they occurred at.
func (b *Builder) shapes(f schema.Field, stack layers.Stack) ([]Shape, error) {
	resolved, err := layout.Resolve(f, b.Dims, b.Channels)
	if err != nil {
		return nil, err
	}
	if err := stack.Validate(f.VariableName); err != nil {
		return nil, err
	}
	for i, d := range stack {
		if _, ok := opFor(d); !ok {
			return nil, faults.AtStage(f.VariableName, i, faults.New(
				faults.ErrCodeUnsupportedLayer, "layer kind %s has no graph operation", d.Kind()))
		}
	}

	pol := b.Policy
	if pol == nil {
		pol = LegacyPolicy{}
	}

	shapes := make([]Shape, 0, len(stack)+1)
	cur := Shape{
		Width:    resolved.Dimensions[0].Size,
		Height:   resolved.Dimensions[1].Size,
		Channels: resolved.Dimensions[2].Size,
	}
	shapes = append(shapes, cur)
	for i, d := range stack {
		next, err := pol.Step(cur, d)
		if err != nil {
			return nil, faults.AtStage(f.VariableName, i, err)
		}
		cur = next
		shapes = append(shapes, cur)
	}
	return shapes, nil
}

// Build compiles a stack with the default providers and policy.
func Build(f schema.Field, stack layers.Stack, input *graph.Node) (*Result, error) {
	var b Builder
	return b.Build(f, stack, input)
}

// Trace folds a stack with the default providers and policy.
func Trace(f schema.Field, stack layers.Stack) ([]Shape, error) {
	var b Builder
	return b.Trace(f, stack)
}

// opFor maps a descriptor to its graph operation. The false return covers
// descriptor kinds the emitter has no operation for yet.
func opFor(d layers.Descriptor) (graph.OpKind, bool) {
	switch d.(type) {
	case layers.Convolution:
		return graph.OpConvolution, true
	case layers.BatchNorm:
		return graph.OpBatchNorm, true
	case layers.ReLU:
		return graph.OpReLU, true
	case layers.Dropout:
		return graph.OpDropout, true
	case layers.MaxPool:
		return graph.OpMaxPool, true
	}
	return 0, false
}

// nodeAttrs carries a descriptor's parameters onto its node verbatim.
func nodeAttrs(d layers.Descriptor) map[string]any {
	switch l := d.(type) {
	case layers.Convolution:
		return map[string]any{
			"input_channels":  l.InputChannels,
			"output_channels": l.OutputChannels,
			"kernel_w":        l.KernelW,
			"kernel_h":        l.KernelH,
			"stride_w":        l.StrideW,
			"stride_h":        l.StrideH,
			"pad_w":           l.PadW,
			"pad_h":           l.PadH,
		}
	case layers.BatchNorm:
		return map[string]any{"input_channels": l.InputChannels}
	case layers.ReLU:
		return map[string]any{"in_place": l.InPlace}
	case layers.Dropout:
		return map[string]any{"ratio": l.Ratio}
	case layers.MaxPool:
		return map[string]any{
			"kernel_w": l.KernelW,
			"kernel_h": l.KernelH,
			"stride_w": l.StrideW,
			"stride_h": l.StrideH,
		}
	}
	return nil
}
