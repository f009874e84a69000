package recording

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the microphone has not been authorized
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceConfiguration covers acquiring, configuring and starting the device
	ErrDeviceConfiguration = errors.New("capture device configuration failed")
	// ErrFinalize covers finishing the file, including stops that came too early
	ErrFinalize = errors.New("failed to finalize recording")
)

// DeviceError reports which device step failed.
// errors.Is matches both the kind and the underlying cause.
type DeviceError struct {
	Kind error
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
