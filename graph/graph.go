// Package graph models the computation-graph fragments the planner emits:
// named operation nodes wired by direct input references, plus a container
// that checks the spliced result is closed and acyclic.
package graph

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNilNode is returned by [Graph.Add] when the node is nil.
	ErrNilNode = errors.New("node must not be nil")

	// ErrEmptyNodeName is returned by [Graph.Add] when the node name is empty.
	// All nodes must have non-empty names.
	ErrEmptyNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Graph.Add] when a node with the same
	// name already exists in the graph. Node names must be unique.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownInput is returned by [Graph.Validate] when a node references
	// an input that was never added to the graph.
	ErrUnknownInput = errors.New("input node not in graph")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// OpKind identifies the operation a node performs.
type OpKind int

const (
	// OpInput stands for the upstream data source feeding a field's chain.
	OpInput OpKind = iota
	OpConvolution
	OpBatchNorm
	OpReLU
	OpDropout
	OpMaxPool
	OpReshape
	// OpSequential groups one field's chain into a single composite node.
	OpSequential
)

// String returns the operation name used in summaries and manifests.
func (op OpKind) String() string {
	switch op {
	case OpInput:
		return "Input"
	case OpConvolution:
		return "Convolution"
	case OpBatchNorm:
		return "BatchNormalization"
	case OpReLU:
		return "ReLU"
	case OpDropout:
		return "Dropout"
	case OpMaxPool:
		return "MaxPooling"
	case OpReshape:
		return "Reshape"
	case OpSequential:
		return "Sequential"
	default:
		return fmt.Sprintf("Unknown(%d)", int(op))
	}
}

// suffix is the short name segment an operation contributes to node names.
func (op OpKind) suffix() string {
	switch op {
	case OpInput:
		return "in"
	case OpConvolution:
		return "conv"
	case OpBatchNorm:
		return "batchnorm"
	case OpReLU:
		return "relu"
	case OpDropout:
		return "dropout"
	case OpMaxPool:
		return "maxpool"
	case OpReshape:
		return "reshape"
	case OpSequential:
		return "seq"
	default:
		return "op"
	}
}

// NodeName builds the name of a stage node. Names are variable:stage:suffix;
// schema validation keeps ':' out of variable names, so distinct
// (variable, stage, op) triples always produce distinct names.
func NodeName(variable string, stage int, op OpKind) string {
	return variable + ":" + strconv.Itoa(stage) + ":" + op.suffix()
}

// InputName builds the name of a field's upstream input node. Input and group
// names carry a single ':', stage names carry two, so the classes never
// collide.
func InputName(variable string) string {
	return variable + ":" + OpInput.suffix()
}

// GroupName builds the name of a field's sequential group node.
func GroupName(variable string) string {
	return variable + ":" + OpSequential.suffix()
}

// Node is one operation in a computation graph. Attrs hold the operation's
// numeric arguments keyed by parameter name. Inputs reference the nodes whose
// outputs feed this one; every stage node the planner emits has exactly one.
type Node struct {
	Name   string
	Op     OpKind
	Attrs  map[string]any
	Inputs []*Node
}

// InputNames returns the names of the node's inputs in order.
func (n *Node) InputNames() []string {
	names := make([]string, len(n.Inputs))
	for i, in := range n.Inputs {
		names[i] = in.Name
	}
	return names
}

// Graph is a container for spliced computation fragments. Nodes are indexed
// by name and kept in insertion order, which downstream emitters rely on for
// deterministic output.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes map[string]*Node
	order []*Node
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Add inserts a node into the graph. Returns ErrNilNode, ErrEmptyNodeName,
// or ErrDuplicateNode when the node cannot be inserted. Inputs are not
// checked here - use Validate once the graph is fully spliced.
func (g *Graph) Add(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.Name == "" {
		return ErrEmptyNodeName
	}
	if _, exists := g.nodes[n.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
	}
	g.nodes[n.Name] = n
	g.order = append(g.order, n)
	return nil
}

// Node returns the node with the given name and true, or nil and false if
// not found.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in insertion order. The returned slice is shared
// with the graph and must not be modified.
func (g *Graph) Nodes() []*Node { return g.order }

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Validate checks graph integrity and returns nil if valid.
// It verifies two constraints:
//
//  1. Every input reference points at the node stored under that name,
//     so the graph is closed over its own nodes.
//  2. The graph is acyclic.
//
// Returns ErrUnknownInput or ErrGraphHasCycle, wrapped with the offending
// node names. Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	for _, n := range g.order {
		for _, in := range n.Inputs {
			if in == nil {
				return fmt.Errorf("%w: %q has a nil input", ErrUnknownInput, n.Name)
			}
			if stored, ok := g.nodes[in.Name]; !ok || stored != in {
				return fmt.Errorf("%w: %q referenced by %q", ErrUnknownInput, in.Name, n.Name)
			}
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var cycleAt string

	var dfs func(n *Node)
	dfs = func(n *Node) {
		color[n.Name] = gray
		for _, in := range n.Inputs {
			switch color[in.Name] {
			case white:
				dfs(in)
			case gray:
				cycleAt = in.Name
				return
			}
		}
		color[n.Name] = black
	}

	for _, n := range g.order {
		if color[n.Name] == white {
			dfs(n)
			if cycleAt != "" {
				return fmt.Errorf("%w: reached %q twice", ErrGraphHasCycle, cycleAt)
			}
		}
	}
	return nil
}
