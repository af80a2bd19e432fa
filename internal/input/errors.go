package input

import "errors"

// Sentinel errors for sink operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, input.ErrDeviceClosed) {
//	    // sink already freed
//	}
var (
	// ErrDeviceClosed is returned when operating on a closed sink.
	ErrDeviceClosed = errors.New("input: device closed")

	// ErrKeycodeRange is returned when a keycode is outside [0, KeyMax).
	ErrKeycodeRange = errors.New("input: keycode out of range")

	// ErrRegistration is returned when the backend cannot create a device.
	ErrRegistration = errors.New("input: device registration failed")
)
