package plan

import (
	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/layers"
)

// Shape is the width, height, channels triple threaded through a stack.
type Shape struct {
	Width    int
	Height   int
	Channels int
}

// Flat returns the element count of the shape's flattened form.
func (s Shape) Flat() int { return s.Channels * s.Width * s.Height }

// Policy computes the shape a layer produces from the shape it receives.
type Policy interface {
	Step(Shape, layers.Descriptor) (Shape, error)
}

// LegacyPolicy reproduces the arithmetic the hosting pipeline has always
// used: convolutions keep their spatial extent and take on their configured
// output channels, pooling halves width and height with floor division no
// matter how the pool is configured, and every other layer is
// shape-preserving. Zero sizes propagate without fault; rejecting a
// degenerate result is the caller's call.
type LegacyPolicy struct{}

func (LegacyPolicy) Step(s Shape, d layers.Descriptor) (Shape, error) {
	switch l := d.(type) {
	case layers.Convolution:
		s.Channels = l.OutputChannels
	case layers.MaxPool:
		s.Width /= 2
		s.Height /= 2
	}
	return s, nil
}

// FormulaPolicy applies the standard output-size arithmetic,
// out = (in + 2*pad - kernel)/stride + 1 per axis, and rejects layers whose
// kernel does not fit the incoming extent. It exists to measure how far the
// legacy arithmetic drifts from the shapes a real runtime would produce.
type FormulaPolicy struct{}

func (FormulaPolicy) Step(s Shape, d layers.Descriptor) (Shape, error) {
	switch l := d.(type) {
	case layers.Convolution:
		w, err := slideOut(s.Width, l.KernelW, l.StrideW, l.PadW, "convolution", "width")
		if err != nil {
			return Shape{}, err
		}
		h, err := slideOut(s.Height, l.KernelH, l.StrideH, l.PadH, "convolution", "height")
		if err != nil {
			return Shape{}, err
		}
		s.Width, s.Height, s.Channels = w, h, l.OutputChannels
	case layers.MaxPool:
		w, err := slideOut(s.Width, l.KernelW, l.StrideW, 0, "pooling", "width")
		if err != nil {
			return Shape{}, err
		}
		h, err := slideOut(s.Height, l.KernelH, l.StrideH, 0, "pooling", "height")
		if err != nil {
			return Shape{}, err
		}
		s.Width, s.Height = w, h
	}
	return s, nil
}

// slideOut computes one axis of a sliding-window output. The fit check keeps
// the numerator non-negative, so integer division is a true floor.
func slideOut(in, kernel, stride, pad int, op, axis string) (int, error) {
	padded := in + 2*pad
	if padded < kernel {
		return 0, faults.New(faults.ErrCodeInvalidLayer,
			"%s kernel %s %d does not fit input %s %d with padding %d", op, axis, kernel, axis, in, pad)
	}
	return (padded-kernel)/stride + 1, nil
}
