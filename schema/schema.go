// Package schema describes dataset fields as the planner sees them: a variable
// name, a leaf flag, and an interpretation tag telling the pipeline how the
// field's raw bytes are meant to be read.
package schema

import (
	"regexp"

	"github.com/mkrawiec/fieldgraph/faults"
)

// Interpretation tags the content type of a field.
type Interpretation string

const (
	InterpretationImage    Interpretation = "image"
	InterpretationNumeric  Interpretation = "numeric"
	InterpretationCategory Interpretation = "category"
	InterpretationText     Interpretation = "text"
)

// Field is one dataset column handed to the planner.
type Field struct {
	VariableName   string
	Leaf           bool
	Interpretation Interpretation
}

// Graph node names join segments with ':', which must therefore never appear
// in a variable name.
var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the field carries a usable variable name.
func Validate(f Field) error {
	if f.VariableName == "" {
		return faults.New(faults.ErrCodeInvalidSchema, "field variable name is empty")
	}
	if !variableNamePattern.MatchString(f.VariableName) {
		return faults.New(faults.ErrCodeInvalidSchema,
			"field variable name %q must match %s", f.VariableName, variableNamePattern)
	}
	return nil
}

// RequireImage checks the planner's entry precondition: only leaf fields
// interpreted as images are accepted.
func RequireImage(f Field) error {
	if err := Validate(f); err != nil {
		return err
	}
	if !f.Leaf {
		return faults.New(faults.ErrCodePrecondition,
			"field %q is not a leaf", f.VariableName)
	}
	if f.Interpretation != InterpretationImage {
		return faults.New(faults.ErrCodePrecondition,
			"field %q is interpreted as %q, want %q", f.VariableName, f.Interpretation, InterpretationImage)
	}
	return nil
}

// Dimensions carries a field's spatial extent in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// DimensionsProvider reports the spatial extent of an image field.
type DimensionsProvider func(Field) Dimensions

// ChannelsProvider reports the channel count of an image field.
type ChannelsProvider func(Field) int

// FixedDimensions returns a provider that reports the same extent for every field.
func FixedDimensions(width, height int) DimensionsProvider {
	return func(Field) Dimensions { return Dimensions{Width: width, Height: height} }
}

// FixedChannels returns a provider that reports the same channel count for every field.
func FixedChannels(n int) ChannelsProvider {
	return func(Field) int { return n }
}

// Default providers. The values are fixed until a data-driven estimator
// replaces them; everything downstream goes through the provider funcs so the
// swap is local to the caller.
var (
	DefaultDimensions DimensionsProvider = FixedDimensions(100, 100)
	DefaultChannels   ChannelsProvider   = FixedChannels(3)
)
