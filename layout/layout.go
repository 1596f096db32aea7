// Package layout resolves how an image field occupies the pipeline's flat
// sample tensor. The external tensor runtime is 1-based, so placements start
// at 1; the resolver always places a field at the origin and leaves shifting
// to the pipeline aggregator.
package layout

import (
	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/schema"
)

// Dimension labels used by resolved shapes.
const (
	LabelWidth    = "width"
	LabelHeight   = "height"
	LabelChannels = "channels"
	LabelFeatures = "features"
)

// Dimension is one labeled axis of a tensor shape.
type Dimension struct {
	Size  int
	Label string
}

// Range is a placement inside the flat sample tensor, 1-based inclusive start.
type Range struct {
	Start int
	Size  int
}

// TensorShape describes a field's tensor: its labeled axes and where its
// flattened form sits in the sample tensor.
type TensorShape struct {
	VariableName string
	Dimensions   []Dimension
	TensorMap    map[string]Range
}

// TotalSize returns the element count implied by the axes.
func (s *TensorShape) TotalSize() int {
	total := 1
	for _, d := range s.Dimensions {
		total *= d.Size
	}
	return total
}

// Placement returns the field's own entry in the tensor map.
func (s *TensorShape) Placement() Range {
	return s.TensorMap[s.VariableName]
}

// Resolve computes the rank-3 shape of an image field from its providers.
// The axes are ordered width, height, channels, and the tensor map holds a
// single entry covering the flattened field at start 1. Nil providers fall
// back to the schema defaults. Resolve is pure: equal inputs produce equal
// shapes, and each call returns a fresh value.
func Resolve(f schema.Field, dims schema.DimensionsProvider, channels schema.ChannelsProvider) (*TensorShape, error) {
	if err := schema.RequireImage(f); err != nil {
		return nil, err
	}
	if dims == nil {
		dims = schema.DefaultDimensions
	}
	if channels == nil {
		channels = schema.DefaultChannels
	}

	d := dims(f)
	c := channels(f)
	switch {
	case d.Width <= 0:
		return nil, faults.New(faults.ErrCodeInvalidSchema,
			"field %q width %d must be positive", f.VariableName, d.Width)
	case d.Height <= 0:
		return nil, faults.New(faults.ErrCodeInvalidSchema,
			"field %q height %d must be positive", f.VariableName, d.Height)
	case c <= 0:
		return nil, faults.New(faults.ErrCodeInvalidSchema,
			"field %q channel count %d must be positive", f.VariableName, c)
	}

	size := d.Width * d.Height * c
	return &TensorShape{
		VariableName: f.VariableName,
		Dimensions: []Dimension{
			{Size: d.Width, Label: LabelWidth},
			{Size: d.Height, Label: LabelHeight},
			{Size: c, Label: LabelChannels},
		},
		TensorMap: map[string]Range{
			f.VariableName: {Start: 1, Size: size},
		},
	}, nil
}

// Flattened builds the rank-1 shape of a field after its graph fragment has
// collapsed it to a feature vector.
func Flattened(variableName string, size int) *TensorShape {
	return &TensorShape{
		VariableName: variableName,
		Dimensions:   []Dimension{{Size: size, Label: LabelFeatures}},
		TensorMap: map[string]Range{
			variableName: {Start: 1, Size: size},
		},
	}
}
