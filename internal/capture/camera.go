package capture

import (
	"context"
	"image"
)

const (
	FacingEnvironment = "environment"
	FocusContinuous   = "continuous"
)

// Range mirrors a min/ideal/max media constraint. Zero fields are unset.
type Range struct {
	Min   int
	Ideal int
	Max   int
}

// Constraints describe the stream requested from a camera. DeviceID pins a
// specific device; otherwise FacingMode selects one.
type Constraints struct {
	DeviceID   string
	FacingMode string
	Width      Range
	Height     Range
	FrameRate  Range
	FocusMode  string
}

// DefaultConstraints are tuned for decode speed: a 720p ideal with a 1080p
// ceiling, continuous focus and a capped frame rate.
func DefaultConstraints(deviceID string) Constraints {
	c := Constraints{
		Width:     Range{Min: 640, Ideal: 1280, Max: 1920},
		Height:    Range{Min: 480, Ideal: 720, Max: 1080},
		FrameRate: Range{Ideal: 30, Max: 60},
		FocusMode: FocusContinuous,
	}
	if deviceID != "" {
		c.DeviceID = deviceID
	} else {
		c.FacingMode = FacingEnvironment
	}
	return c
}

type Capabilities struct {
	Torch bool
}

// Camera acquires exclusive video streams.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live video track. Stop releases the device, turning off the
// torch with it, and must be safe to call more than once.
type Stream interface {
	Frames() <-chan image.Image
	Capabilities() Capabilities
	SetTorch(on bool) error
	Stop() error
}
