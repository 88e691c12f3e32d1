package core

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	SetLogOutput(io.Discard)

	tests := []struct {
		name  string
		err   error
		is    []error
		isNot []error
	}{
		{
			name:  "index out of range is an invalid argument",
			err:   IndexOutOfRange("index %d", 4),
			is:    []error{ErrIndexOutOfRange, ErrInvalidArgument},
			isNot: []error{ErrIndexOutsideRestrictedRange, ErrUnsupported},
		},
		{
			name:  "restricted range is an invalid argument",
			err:   fmt.Errorf("%w: index 3", ErrIndexOutsideRestrictedRange),
			is:    []error{ErrIndexOutsideRestrictedRange, ErrInvalidArgument},
			isNot: []error{ErrIndexOutOfRange},
		},
		{
			name:  "unsupported is distinct from invalid argument",
			err:   Unsupported("format %d", 8),
			is:    []error{ErrUnsupported},
			isNot: []error{ErrInvalidArgument, ErrNotAccessible},
		},
		{
			name:  "not accessible",
			err:   NotAccessible("mesh %q", "cube"),
			is:    []error{ErrNotAccessible},
			isNot: []error{ErrInvalidArgument},
		},
		{
			name:  "native failure keeps the backend error",
			err:   NativeFailure("TextureCreate", io.ErrUnexpectedEOF),
			is:    []error{ErrNativeFailure, io.ErrUnexpectedEOF},
			isNot: []error{ErrInvalidArgument},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, target := range tt.is {
				if !errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, target)
				}
			}
			for _, target := range tt.isNot {
				if errors.Is(tt.err, target) {
					t.Errorf("errors.Is(%v, %v) = true, want false", tt.err, target)
				}
			}
		})
	}
}

func TestNativeFailureNil(t *testing.T) {
	if err := NativeFailure("op", nil); err != nil {
		t.Errorf("NativeFailure(nil) = %v, want nil", err)
	}
}

func TestNativeFailureNotDoubleWrapped(t *testing.T) {
	SetLogOutput(io.Discard)
	first := NativeFailure("inner", errors.New("boom"))
	second := NativeFailure("outer", first)
	if second != first {
		t.Errorf("NativeFailure rewrapped an existing native failure: %v", second)
	}
}

func TestSetLogLevel(t *testing.T) {
	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel(debug) = %v", err)
	}
	if err := SetLogLevel("chatty"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetLogLevel(chatty) = %v, want ErrInvalidArgument", err)
	}
	_ = SetLogLevel("info")
}

func TestClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("device lost"), false},
		{"invalid operation", InvalidOperation("shut down"), true},
		{"restricted range", IndexOutsideRestrictedRange("index 3"), true},
		{"wrapped", fmt.Errorf("asset: %w", ReadOnly("view")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classified(tt.err); got != tt.want {
				t.Errorf("Classified(%v) = %t, want %t", tt.err, got, tt.want)
			}
		})
	}
}
