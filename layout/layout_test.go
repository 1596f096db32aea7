package layout

import (
	"reflect"
	"testing"

	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/schema"
)

func imageField(name string) schema.Field {
	return schema.Field{VariableName: name, Leaf: true, Interpretation: schema.InterpretationImage}
}

func TestResolveDefaults(t *testing.T) {
	shape, err := Resolve(imageField("thumbnail"), nil, nil)
	if err != nil {
		t.Fatalf("Resolve() = %v, want nil", err)
	}

	wantDims := []Dimension{
		{Size: 100, Label: LabelWidth},
		{Size: 100, Label: LabelHeight},
		{Size: 3, Label: LabelChannels},
	}
	if !reflect.DeepEqual(shape.Dimensions, wantDims) {
		t.Errorf("Dimensions = %+v, want %+v", shape.Dimensions, wantDims)
	}
	if got := shape.TotalSize(); got != 30000 {
		t.Errorf("TotalSize() = %d, want 30000", got)
	}
	if got := shape.Placement(); got != (Range{Start: 1, Size: 30000}) {
		t.Errorf("Placement() = %+v, want {Start: 1, Size: 30000}", got)
	}
	if len(shape.TensorMap) != 1 {
		t.Errorf("TensorMap has %d entries, want exactly 1", len(shape.TensorMap))
	}
}

func TestResolveCustomProviders(t *testing.T) {
	tests := []struct {
		name     string
		w, h, c  int
		wantSize int
	}{
		{"mnist", 28, 28, 1, 784},
		{"cifar", 32, 32, 3, 3072},
		{"tall", 64, 128, 3, 24576},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Resolve(imageField("img"),
				schema.FixedDimensions(tt.w, tt.h), schema.FixedChannels(tt.c))
			if err != nil {
				t.Fatalf("Resolve() = %v, want nil", err)
			}
			if shape.TotalSize() != tt.wantSize {
				t.Errorf("TotalSize() = %d, want %d", shape.TotalSize(), tt.wantSize)
			}
			if shape.Placement().Size != tt.wantSize {
				t.Errorf("Placement().Size = %d, want %d", shape.Placement().Size, tt.wantSize)
			}
			if shape.Dimensions[0].Size != tt.w || shape.Dimensions[1].Size != tt.h || shape.Dimensions[2].Size != tt.c {
				t.Errorf("axis sizes = %+v, want %d, %d, %d", shape.Dimensions, tt.w, tt.h, tt.c)
			}
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	f := imageField("thumbnail")
	first, err := Resolve(f, nil, nil)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	second, err := Resolve(f, nil, nil)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two resolves of the same field differ")
	}

	// Mutating one result must not leak into the next resolve.
	first.TensorMap["thumbnail"] = Range{Start: 500, Size: 1}
	third, err := Resolve(f, nil, nil)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if third.Placement().Start != 1 {
		t.Errorf("Placement().Start = %d after caller mutation, want 1", third.Placement().Start)
	}
}

func TestResolveRejections(t *testing.T) {
	t.Run("non-image field", func(t *testing.T) {
		f := schema.Field{VariableName: "price", Leaf: true, Interpretation: schema.InterpretationNumeric}
		_, err := Resolve(f, nil, nil)
		if !faults.Is(err, faults.ErrCodePrecondition) {
			t.Errorf("Resolve() code = %q, want %q", faults.GetCode(err), faults.ErrCodePrecondition)
		}
	})

	t.Run("non-leaf field", func(t *testing.T) {
		f := schema.Field{VariableName: "group", Leaf: false, Interpretation: schema.InterpretationImage}
		_, err := Resolve(f, nil, nil)
		if !faults.Is(err, faults.ErrCodePrecondition) {
			t.Errorf("Resolve() code = %q, want %q", faults.GetCode(err), faults.ErrCodePrecondition)
		}
	})

	t.Run("non-positive provider outputs", func(t *testing.T) {
		f := imageField("img")
		if _, err := Resolve(f, schema.FixedDimensions(0, 100), nil); !faults.Is(err, faults.ErrCodeInvalidSchema) {
			t.Errorf("zero width: code = %q, want %q", faults.GetCode(err), faults.ErrCodeInvalidSchema)
		}
		if _, err := Resolve(f, schema.FixedDimensions(100, -5), nil); !faults.Is(err, faults.ErrCodeInvalidSchema) {
			t.Errorf("negative height: code = %q, want %q", faults.GetCode(err), faults.ErrCodeInvalidSchema)
		}
		if _, err := Resolve(f, nil, schema.FixedChannels(0)); !faults.Is(err, faults.ErrCodeInvalidSchema) {
			t.Errorf("zero channels: code = %q, want %q", faults.GetCode(err), faults.ErrCodeInvalidSchema)
		}
	})
}

func TestFlattened(t *testing.T) {
	shape := Flattened("thumbnail", 40000)
	if len(shape.Dimensions) != 1 {
		t.Fatalf("Dimensions count = %d, want 1", len(shape.Dimensions))
	}
	if shape.Dimensions[0] != (Dimension{Size: 40000, Label: LabelFeatures}) {
		t.Errorf("Dimensions[0] = %+v, want {40000 features}", shape.Dimensions[0])
	}
	if shape.TotalSize() != 40000 {
		t.Errorf("TotalSize() = %d, want 40000", shape.TotalSize())
	}
	if shape.Placement() != (Range{Start: 1, Size: 40000}) {
		t.Errorf("Placement() = %+v, want {1 40000}", shape.Placement())
	}
}
