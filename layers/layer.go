// Package layers defines the processing-layer descriptors a user can stack on
// an image field. The descriptor set is a closed union: every descriptor type
// lives in this package, and anything outside the set is rejected at the
// boundary that tries to construct it.
package layers

import (
	"fmt"

	"github.com/mkrawiec/fieldgraph/faults"
)

// Kind identifies a layer descriptor variant.
type Kind int

const (
	KindConvolution Kind = iota
	KindBatchNorm
	KindReLU
	KindDropout
	KindMaxPool
)

// String returns a human-readable layer kind name.
func (k Kind) String() string {
	switch k {
	case KindConvolution:
		return "Convolution"
	case KindBatchNorm:
		return "BatchNormalization"
	case KindReLU:
		return "ReLU"
	case KindDropout:
		return "Dropout"
	case KindMaxPool:
		return "MaxPooling"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Descriptor is one configured layer in a field's stack. Implementations are
// sealed to this package.
type Descriptor interface {
	Kind() Kind
	Validate() error

	isDescriptor()
}

// Convolution applies a 2D convolution with per-axis kernel, stride, and
// padding.
type Convolution struct {
	InputChannels  int
	OutputChannels int
	KernelW        int
	KernelH        int
	StrideW        int
	StrideH        int
	PadW           int
	PadH           int
}

func (Convolution) Kind() Kind    { return KindConvolution }
func (Convolution) isDescriptor() {}

// Validate reports the first unusable parameter.
func (c Convolution) Validate() error {
	switch {
	case c.InputChannels <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "input channels %d must be positive", c.InputChannels)
	case c.OutputChannels <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "output channels %d must be positive", c.OutputChannels)
	case c.KernelW <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "kernel width %d must be positive", c.KernelW)
	case c.KernelH <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "kernel height %d must be positive", c.KernelH)
	case c.StrideW <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "stride width %d must be positive", c.StrideW)
	case c.StrideH <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "stride height %d must be positive", c.StrideH)
	case c.PadW < 0:
		return faults.New(faults.ErrCodeInvalidLayer, "padding width %d must be non-negative", c.PadW)
	case c.PadH < 0:
		return faults.New(faults.ErrCodeInvalidLayer, "padding height %d must be non-negative", c.PadH)
	}
	return nil
}

// Conv2D builds a square-kernel Convolution.
func Conv2D(inChannels, outChannels, kernel, stride, padding int) Convolution {
	return Convolution{
		InputChannels:  inChannels,
		OutputChannels: outChannels,
		KernelW:        kernel,
		KernelH:        kernel,
		StrideW:        stride,
		StrideH:        stride,
		PadW:           padding,
		PadH:           padding,
	}
}

// BatchNorm normalizes activations per channel.
type BatchNorm struct {
	InputChannels int
}

func (BatchNorm) Kind() Kind    { return KindBatchNorm }
func (BatchNorm) isDescriptor() {}

func (b BatchNorm) Validate() error {
	if b.InputChannels <= 0 {
		return faults.New(faults.ErrCodeInvalidLayer, "input channels %d must be positive", b.InputChannels)
	}
	return nil
}

// ReLU applies a rectified linear activation.
type ReLU struct {
	InPlace bool
}

func (ReLU) Kind() Kind    { return KindReLU }
func (ReLU) isDescriptor() {}

func (ReLU) Validate() error { return nil }

// Dropout zeroes a fraction of activations during training.
type Dropout struct {
	Ratio float64
}

func (Dropout) Kind() Kind    { return KindDropout }
func (Dropout) isDescriptor() {}

// Validate requires the drop ratio to lie strictly inside (0, 1).
func (d Dropout) Validate() error {
	if d.Ratio <= 0 || d.Ratio >= 1 {
		return faults.New(faults.ErrCodeInvalidLayer, "dropout ratio %v outside (0, 1)", d.Ratio)
	}
	return nil
}

// MaxPool applies 2D max pooling with per-axis kernel and stride.
type MaxPool struct {
	KernelW int
	KernelH int
	StrideW int
	StrideH int
}

func (MaxPool) Kind() Kind    { return KindMaxPool }
func (MaxPool) isDescriptor() {}

func (m MaxPool) Validate() error {
	switch {
	case m.KernelW <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "kernel width %d must be positive", m.KernelW)
	case m.KernelH <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "kernel height %d must be positive", m.KernelH)
	case m.StrideW <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "stride width %d must be positive", m.StrideW)
	case m.StrideH <= 0:
		return faults.New(faults.ErrCodeInvalidLayer, "stride height %d must be positive", m.StrideH)
	}
	return nil
}

// MaxPool2D builds a square-kernel MaxPool.
func MaxPool2D(kernel, stride int) MaxPool {
	return MaxPool{KernelW: kernel, KernelH: kernel, StrideW: stride, StrideH: stride}
}

// Stack is an ordered list of layer descriptors applied to one field.
type Stack []Descriptor

// Validate checks every descriptor in order and reports the first fault with
// its position and the owning field's variable name. A valid stack produces
// no faults later in the build.
func (s Stack) Validate(variable string) error {
	for i, d := range s {
		if d == nil {
			return faults.AtStage(variable, i,
				faults.New(faults.ErrCodeUnsupportedLayer, "layer descriptor is nil"))
		}
		if err := d.Validate(); err != nil {
			return faults.AtStage(variable, i, err)
		}
	}
	return nil
}
