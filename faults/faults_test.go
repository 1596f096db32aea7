package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ErrCodeInvalidLayer, "kernel width %d must be positive", -3)
		want := "INVALID_LAYER_CONFIGURATION: kernel width -3 must be positive"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("unexpected EOF")
		err := Wrap(ErrCodeInvalidConfig, cause, "parse pipeline.toml")
		want := "INVALID_CONFIG: parse pipeline.toml: unexpected EOF"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, cause) {
			t.Error("wrapped error should match its cause via errors.Is")
		}
	})
}

func TestCodeExtraction(t *testing.T) {
	base := New(ErrCodePrecondition, "stack must not be empty")

	t.Run("direct", func(t *testing.T) {
		if !Is(base, ErrCodePrecondition) {
			t.Error("Is() should match the direct code")
		}
		if Is(base, ErrCodeInvalidLayer) {
			t.Error("Is() should not match a different code")
		}
		if got := GetCode(base); got != ErrCodePrecondition {
			t.Errorf("GetCode() = %q, want %q", got, ErrCodePrecondition)
		}
	})

	t.Run("through fmt wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("compiling field: %w", base)
		if !Is(wrapped, ErrCodePrecondition) {
			t.Error("Is() should see through fmt.Errorf %w wrapping")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		plain := errors.New("something else")
		if Is(plain, ErrCodePrecondition) {
			t.Error("Is() should reject errors without a code")
		}
		if got := GetCode(plain); got != "" {
			t.Errorf("GetCode() = %q, want empty", got)
		}
	})
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeInvalidSchema, "variable name is empty"), "variable name is empty"},
		{"plain", errors.New("raw failure"), "raw failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStageError(t *testing.T) {
	t.Run("locates and unwraps", func(t *testing.T) {
		inner := New(ErrCodeInvalidLayer, "dropout ratio 1.5 outside (0, 1)")
		err := AtStage("thumbnail", 2, inner)

		variable, stage, ok := StageOf(err)
		if !ok {
			t.Fatal("StageOf() should find a location")
		}
		if variable != "thumbnail" || stage != 2 {
			t.Errorf("StageOf() = (%q, %d), want (%q, %d)", variable, stage, "thumbnail", 2)
		}
		if !Is(err, ErrCodeInvalidLayer) {
			t.Error("code check should see through the stage locator")
		}
		want := `field "thumbnail" stage 2: INVALID_LAYER_CONFIGURATION: dropout ratio 1.5 outside (0, 1)`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("nil passthrough", func(t *testing.T) {
		if err := AtStage("thumbnail", 0, nil); err != nil {
			t.Errorf("AtStage(nil) = %v, want nil", err)
		}
	})

	t.Run("absent location", func(t *testing.T) {
		if _, _, ok := StageOf(errors.New("no location")); ok {
			t.Error("StageOf() should report absence for plain errors")
		}
	})
}
