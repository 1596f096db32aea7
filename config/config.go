// Package config reads pipeline definitions from TOML. A definition lists
// image fields and, per field, the ordered layer stack to apply:
//
//	[[field]]
//	name = "thumbnail"
//	width = 100
//	height = 100
//	channels = 3
//
//	  [[field.layer]]
//	  kind = "convolution"
//	  input_channels = 3
//	  output_channels = 32
//	  kernel = 5
//	  padding = 2
//
// Layer kinds are identified by string tags; anything outside the supported
// set is rejected with the position it appeared at. Parameter semantics are
// checked later by the descriptors themselves, so this package stays a thin
// syntax layer.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/layers"
	"github.com/mkrawiec/fieldgraph/pipeline"
	"github.com/mkrawiec/fieldgraph/schema"
)

// Layer kind tags accepted in definition files.
const (
	TagConvolution = "convolution"
	TagBatchNorm   = "batch_normalization"
	TagReLU        = "relu"
	TagDropout     = "dropout"
	TagMaxPool     = "max_pooling"
)

// Pipeline is the top-level definition file structure.
type Pipeline struct {
	Fields []FieldConfig `toml:"field"`
}

// FieldConfig declares one image field. Zero extent values fall back to the
// 100x100x3 defaults; the interpretation defaults to "image".
type FieldConfig struct {
	Name           string        `toml:"name"`
	Interpretation string        `toml:"interpretation"`
	Width          int           `toml:"width"`
	Height         int           `toml:"height"`
	Channels       int           `toml:"channels"`
	Layers         []LayerConfig `toml:"layer"`
}

// LayerConfig declares one layer. Square parameters (kernel, stride,
// padding) apply to both axes unless the per-axis variant overrides them.
// A zero stride means 1 for convolutions and the kernel size for pooling.
type LayerConfig struct {
	Kind string `toml:"kind"`

	InputChannels  int `toml:"input_channels"`
	OutputChannels int `toml:"output_channels"`

	Kernel  int `toml:"kernel"`
	KernelW int `toml:"kernel_w"`
	KernelH int `toml:"kernel_h"`
	Stride  int `toml:"stride"`
	StrideW int `toml:"stride_w"`
	StrideH int `toml:"stride_h"`
	Padding int `toml:"padding"`
	PadW    int `toml:"pad_w"`
	PadH    int `toml:"pad_h"`

	InPlace bool    `toml:"in_place"`
	Ratio   float64 `toml:"ratio"`
}

// Load reads and parses a definition file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrCodeInvalidConfig, err, "read %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a definition from TOML bytes.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, faults.Wrap(faults.ErrCodeInvalidConfig, err, "parse pipeline definition")
	}
	return &p, nil
}

// Specs converts the definition into compilable field specs. Unknown layer
// kind tags fault with the field and position they appeared at.
func (p *Pipeline) Specs() ([]pipeline.Spec, error) {
	specs := make([]pipeline.Spec, 0, len(p.Fields))
	for _, f := range p.Fields {
		stack := make(layers.Stack, 0, len(f.Layers))
		for i, l := range f.Layers {
			d, err := l.descriptor()
			if err != nil {
				return nil, faults.AtStage(f.Name, i, err)
			}
			stack = append(stack, d)
		}

		interp := schema.Interpretation(f.Interpretation)
		if interp == "" {
			interp = schema.InterpretationImage
		}
		specs = append(specs, pipeline.Spec{
			Field: schema.Field{
				VariableName:   f.Name,
				Leaf:           true,
				Interpretation: interp,
			},
			Stack:    stack,
			Dims:     schema.FixedDimensions(orDefault(f.Width, 100), orDefault(f.Height, 100)),
			Channels: schema.FixedChannels(orDefault(f.Channels, 3)),
		})
	}
	return specs, nil
}

// descriptor maps one layer declaration to its typed descriptor.
func (l LayerConfig) descriptor() (layers.Descriptor, error) {
	switch l.Kind {
	case TagConvolution:
		return layers.Convolution{
			InputChannels:  l.InputChannels,
			OutputChannels: l.OutputChannels,
			KernelW:        axis(l.KernelW, l.Kernel, 0),
			KernelH:        axis(l.KernelH, l.Kernel, 0),
			StrideW:        axis(l.StrideW, l.Stride, 1),
			StrideH:        axis(l.StrideH, l.Stride, 1),
			PadW:           axis(l.PadW, l.Padding, 0),
			PadH:           axis(l.PadH, l.Padding, 0),
		}, nil
	case TagBatchNorm:
		return layers.BatchNorm{InputChannels: l.InputChannels}, nil
	case TagReLU:
		return layers.ReLU{InPlace: l.InPlace}, nil
	case TagDropout:
		return layers.Dropout{Ratio: l.Ratio}, nil
	case TagMaxPool:
		kw := axis(l.KernelW, l.Kernel, 0)
		kh := axis(l.KernelH, l.Kernel, 0)
		return layers.MaxPool{
			KernelW: kw,
			KernelH: kh,
			StrideW: axis(l.StrideW, l.Stride, kw),
			StrideH: axis(l.StrideH, l.Stride, kh),
		}, nil
	case "":
		return nil, faults.New(faults.ErrCodeUnsupportedLayer, "layer kind is missing")
	default:
		return nil, faults.New(faults.ErrCodeUnsupportedLayer, "unknown layer kind %q", l.Kind)
	}
}

func axis(perAxis, square, fallback int) int {
	if perAxis != 0 {
		return perAxis
	}
	if square != 0 {
		return square
	}
	return fallback
}

func orDefault(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
