package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for nil resources, out-of-range values
	// and unsupported argument combinations. Raised before any native call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIndexOutOfRange is an invalid argument where an index is beyond the declared length.
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrInvalidArgument)
	// ErrIndexOutsideRestrictedRange is an invalid argument where an index is
	// inside the declared length but outside the currently restricted sub-range.
	ErrIndexOutsideRestrictedRange = fmt.Errorf("%w: index outside restricted range", ErrInvalidArgument)
	// ErrUnsupported means the device reported the format or feature as unavailable.
	ErrUnsupported = errors.New("not supported on this device")
	// ErrNotAccessible means the resource is not readable or writable from the CPU.
	ErrNotAccessible = errors.New("resource is not accessible from the CPU")
	// ErrNativeFailure wraps errors reported by the backend itself.
	ErrNativeFailure = errors.New("native call failed")
	// ErrInvalidOperation means the call is not valid in the current state of the object.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrAccessInvalidated is returned when a scoped view is used after it was disposed.
	ErrAccessInvalidated = errors.New("access invalidated: the view has been disposed")
	// ErrReadOnly is returned when writing through a read-only scoped view.
	ErrReadOnly = errors.New("view is read-only")
)

func InvalidArgument(format string, args ...interface{}) error {
	return wrapf(ErrInvalidArgument, format, args...)
}

func IndexOutOfRange(format string, args ...interface{}) error {
	return wrapf(ErrIndexOutOfRange, format, args...)
}

func Unsupported(format string, args ...interface{}) error {
	return wrapf(ErrUnsupported, format, args...)
}

func NotAccessible(format string, args ...interface{}) error {
	return wrapf(ErrNotAccessible, format, args...)
}

func InvalidOperation(format string, args ...interface{}) error {
	return wrapf(ErrInvalidOperation, format, args...)
}

// NativeFailure marks err as reported by the backend for op and logs it.
func NativeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNativeFailure) {
		return err
	}
	wrapped := fmt.Errorf("%w: %s: %w", ErrNativeFailure, op, err)
	LogError("%s", wrapped.Error())
	return wrapped
}

// Classified reports whether err already carries one of the engine error kinds.
func Classified(err error) bool {
	for _, kind := range []error{ErrInvalidArgument, ErrUnsupported, ErrNotAccessible, ErrNativeFailure,
		ErrInvalidOperation, ErrAccessInvalidated, ErrReadOnly} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

func IndexOutsideRestrictedRange(format string, args ...interface{}) error {
	return wrapf(ErrIndexOutsideRestrictedRange, format, args...)
}

func AccessInvalidated(format string, args ...interface{}) error {
	return wrapf(ErrAccessInvalidated, format, args...)
}

func ReadOnly(format string, args ...interface{}) error {
	return wrapf(ErrReadOnly, format, args...)
}
