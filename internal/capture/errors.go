package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureUnavailable marks a capture-fatal failure: no strategy could
	// acquire the camera. It is reported once; retrying is up to the user.
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrNativeUnavailable  = errors.New("platform barcode detector unavailable")
)

// StartError records why each strategy failed during Start.
type StartError struct {
	DeviceID string
	Native   error
	Fallback error
}

func (e *StartError) Error() string {
	device := e.DeviceID
	if device == "" {
		device = FacingEnvironment
	}
	return fmt.Sprintf("capture unavailable on %s: native: %v; fallback: %v", device, e.Native, e.Fallback)
}

func (e *StartError) Unwrap() []error {
	errs := []error{ErrCaptureUnavailable}
	for _, err := range []error{e.Native, e.Fallback} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
