// Package pipeline splices per-field computation fragments into one plan: it
// places every image field in the flat sample tensor, builds each field's
// chain, and collects the nodes into a single validated graph.
package pipeline

import (
	"fmt"

	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/graph"
	"github.com/mkrawiec/fieldgraph/layers"
	"github.com/mkrawiec/fieldgraph/layout"
	"github.com/mkrawiec/fieldgraph/plan"
	"github.com/mkrawiec/fieldgraph/schema"
)

// Spec pairs one image field with its configured stack. Nil providers fall
// back to the schema defaults.
type Spec struct {
	Field    schema.Field
	Stack    layers.Stack
	Dims     schema.DimensionsProvider
	Channels schema.ChannelsProvider
}

// FieldPlan is everything the pipeline derived for one field.
type FieldPlan struct {
	Field schema.Field
	Stack layers.Stack

	// Shape is the field's rank-3 layout with its placement re-based into
	// the shared sample tensor.
	Shape *layout.TensorShape

	// Build is the field's compiled chain.
	Build *plan.Result

	// Input is the upstream source node feeding the chain, Group the
	// sequential node wrapping it.
	Input *graph.Node
	Group *graph.Node
}

// Plan is a compiled multi-field pipeline.
type Plan struct {
	Fields []FieldPlan
	Graph  *graph.Graph

	// TotalSize is the element count of the flat sample tensor reserved for
	// all image fields together.
	TotalSize int
}

// Compiler configures pipeline compilation. The zero value uses the legacy
// shape policy.
type Compiler struct {
	Policy plan.Policy
}

// Compile builds the full plan for the given field specs. Field order is
// preserved everywhere: placements are assigned by prefix sums over the
// rank-3 sizes starting at 1, and graph nodes are added field by field, so
// equal inputs compile to equal plans. Any fault aborts the whole
// compilation.
func (c *Compiler) Compile(specs []Spec) (*Plan, error) {
	if len(specs) == 0 {
		return nil, faults.New(faults.ErrCodeInvalidPipeline, "no image fields configured")
	}

	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if _, dup := seen[s.Field.VariableName]; dup {
			return nil, faults.New(faults.ErrCodeInvalidPipeline,
				"field %q configured twice", s.Field.VariableName)
		}
		seen[s.Field.VariableName] = struct{}{}
	}

	p := &Plan{
		Fields: make([]FieldPlan, 0, len(specs)),
		Graph:  graph.New(),
	}

	offset := 1
	for _, s := range specs {
		name := s.Field.VariableName

		shape, err := layout.Resolve(s.Field, s.Dims, s.Channels)
		if err != nil {
			return nil, err
		}
		size := shape.Placement().Size
		shape.TensorMap[name] = layout.Range{Start: offset, Size: size}
		offset += size
		p.TotalSize += size

		input := &graph.Node{Name: graph.InputName(name), Op: graph.OpInput}
		b := plan.Builder{Dims: s.Dims, Channels: s.Channels, Policy: c.Policy}
		built, err := b.Build(s.Field, s.Stack, input)
		if err != nil {
			return nil, err
		}
		if built.OutputShape.TotalSize() == 0 {
			return nil, faults.New(faults.ErrCodeInvalidPipeline,
				"field %q collapses to an empty feature vector", name)
		}

		group := &graph.Node{
			Name:   graph.GroupName(name),
			Op:     graph.OpSequential,
			Attrs:  map[string]any{"members": nodeNames(built.Chain)},
			Inputs: []*graph.Node{input},
		}

		for _, n := range spliceOrder(input, built, group) {
			if err := p.Graph.Add(n); err != nil {
				return nil, faults.Wrap(faults.ErrCodeInvalidPipeline, err,
					"splice field %q", name)
			}
		}

		p.Fields = append(p.Fields, FieldPlan{
			Field: s.Field,
			Stack: s.Stack,
			Shape: shape,
			Build: built,
			Input: input,
			Group: group,
		})
	}

	if err := p.Graph.Validate(); err != nil {
		return nil, faults.Wrap(faults.ErrCodeInvalidPipeline, err, "spliced graph is inconsistent")
	}
	return p, nil
}

// Compile builds a plan with the default compiler.
func Compile(specs []Spec) (*Plan, error) {
	var c Compiler
	return c.Compile(specs)
}

// spliceOrder fixes the insertion order of one field's nodes: input first,
// then the chain in stage order, then the group wrapper.
func spliceOrder(input *graph.Node, built *plan.Result, group *graph.Node) []*graph.Node {
	nodes := make([]*graph.Node, 0, len(built.Chain)+len(built.ExtraNodes)+2)
	nodes = append(nodes, input)
	nodes = append(nodes, built.Chain...)
	nodes = append(nodes, built.ExtraNodes...)
	nodes = append(nodes, group)
	return nodes
}

func nodeNames(nodes []*graph.Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

// Field returns the plan for the named field, or an error naming it.
func (p *Plan) Field(name string) (*FieldPlan, error) {
	for i := range p.Fields {
		if p.Fields[i].Field.VariableName == name {
			return &p.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("field %q not in plan", name)
}
