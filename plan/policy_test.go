package plan

import (
	"testing"

	"github.com/mkrawiec/fieldgraph/faults"
	"github.com/mkrawiec/fieldgraph/layers"
)

func TestLegacyPolicy(t *testing.T) {
	var p LegacyPolicy
	in := Shape{Width: 100, Height: 100, Channels: 3}

	tests := []struct {
		name string
		desc layers.Descriptor
		want Shape
	}{
		{"convolution keeps spatial extent", layers.Conv2D(3, 32, 5, 1, 2), Shape{100, 100, 32}},
		{"strided convolution still keeps spatial extent", layers.Conv2D(3, 32, 5, 2, 2), Shape{100, 100, 32}},
		{"batch norm is identity", layers.BatchNorm{InputChannels: 3}, in},
		{"relu is identity", layers.ReLU{}, in},
		{"dropout is identity", layers.Dropout{Ratio: 0.5}, in},
		{"pooling halves", layers.MaxPool2D(2, 2), Shape{50, 50, 3}},
		{"pooling ignores its parameters", layers.MaxPool2D(3, 1), Shape{50, 50, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Step(in, tt.desc)
			if err != nil {
				t.Fatalf("Step() = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Step() = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("odd extent floors", func(t *testing.T) {
		got, err := p.Step(Shape{25, 25, 64}, layers.MaxPool2D(2, 2))
		if err != nil {
			t.Fatalf("Step() = %v", err)
		}
		if got != (Shape{12, 12, 64}) {
			t.Errorf("Step() = %+v, want {12 12 64}", got)
		}
	})

	t.Run("degenerate extent folds to zero without fault", func(t *testing.T) {
		got, err := p.Step(Shape{1, 1, 3}, layers.MaxPool2D(2, 2))
		if err != nil {
			t.Fatalf("Step() = %v", err)
		}
		if got != (Shape{0, 0, 3}) {
			t.Errorf("Step() = %+v, want {0 0 3}", got)
		}
	})
}

func TestFormulaPolicy(t *testing.T) {
	var p FormulaPolicy

	tests := []struct {
		name string
		in   Shape
		desc layers.Descriptor
		want Shape
	}{
		{"padded convolution preserves extent", Shape{100, 100, 3}, layers.Conv2D(3, 32, 5, 1, 2), Shape{100, 100, 32}},
		{"strided convolution shrinks", Shape{100, 100, 3}, layers.Conv2D(3, 32, 5, 2, 2), Shape{50, 50, 32}},
		{"unpadded convolution trims borders", Shape{28, 28, 1}, layers.Conv2D(1, 8, 3, 1, 0), Shape{26, 26, 8}},
		{"pooling even extent", Shape{100, 100, 32}, layers.MaxPool2D(2, 2), Shape{50, 50, 32}},
		{"pooling odd extent floors", Shape{25, 25, 64}, layers.MaxPool2D(2, 2), Shape{12, 12, 64}},
		{"identity layers pass through", Shape{100, 100, 3}, layers.ReLU{}, Shape{100, 100, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Step(tt.in, tt.desc)
			if err != nil {
				t.Fatalf("Step() = %v, want nil", err)
			}
			if got != tt.want {
				t.Errorf("Step() = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("kernel larger than input is rejected", func(t *testing.T) {
		_, err := p.Step(Shape{1, 1, 3}, layers.MaxPool2D(2, 2))
		if !faults.Is(err, faults.ErrCodeInvalidLayer) {
			t.Errorf("Step() code = %q, want %q", faults.GetCode(err), faults.ErrCodeInvalidLayer)
		}
		_, err = p.Step(Shape{5, 5, 3}, layers.Conv2D(3, 8, 7, 1, 0))
		if !faults.Is(err, faults.ErrCodeInvalidLayer) {
			t.Errorf("Step() code = %q, want %q", faults.GetCode(err), faults.ErrCodeInvalidLayer)
		}
	})

	t.Run("padding can make a large kernel fit", func(t *testing.T) {
		got, err := p.Step(Shape{5, 5, 3}, layers.Conv2D(3, 8, 7, 1, 1))
		if err != nil {
			t.Fatalf("Step() = %v, want nil", err)
		}
		if got != (Shape{1, 1, 8}) {
			t.Errorf("Step() = %+v, want {1 1 8}", got)
		}
	})
}

// The legacy arithmetic agrees with the sliding-window formula on the layer
// configurations the pipeline actually ships: extent-preserving convolutions
// and 2x2 stride-2 pools over non-degenerate inputs.
func TestPoliciesAgreeOnShippedConfigurations(t *testing.T) {
	var legacy LegacyPolicy
	var formula FormulaPolicy

	descs := []layers.Descriptor{
		layers.Conv2D(3, 32, 5, 1, 2),
		layers.Conv2D(32, 64, 3, 1, 1),
		layers.MaxPool2D(2, 2),
	}
	for w := 2; w <= 64; w++ {
		in := Shape{Width: w, Height: w, Channels: 3}
		for _, d := range descs {
			lg, err := legacy.Step(in, d)
			if err != nil {
				t.Fatalf("legacy Step(%d, %v) = %v", w, d.Kind(), err)
			}
			fm, err := formula.Step(in, d)
			if err != nil {
				t.Fatalf("formula Step(%d, %v) = %v", w, d.Kind(), err)
			}
			if lg != fm {
				t.Errorf("policies disagree at extent %d for %v: legacy %+v, formula %+v", w, d.Kind(), lg, fm)
			}
		}
	}
}
