package capture

import (
	"context"
	"image"
	"io"
)

type Mode string

const (
	ModeNative   Mode = "native"
	ModeFallback Mode = "fallback"
)

// Strategy is one decoding backend. The engine picks one per Start and owns
// its whole lifecycle: construction, per-frame Detect, Close.
type Strategy interface {
	Mode() Mode
	// Region is the centered crop handed to Detect.
	Region() Region
	// Admit reports whether a frame may be sampled now. Strategies with a
	// capped sample rate refuse frames between ticks.
	Admit() bool
	// Detect returns the first code found in frame, or "" when there is none.
	Detect(ctx context.Context, frame image.Image) (string, error)
	Close() error
}

type StrategyFactory func(formats []Format) (Strategy, error)

// Detection is one result from a platform detector.
type Detection struct {
	RawValue string
	Format   Format
}

// Detector is a platform-provided, usually hardware-accelerated, barcode
// detector operating on image data.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

type DetectorFactory func(formats []Format) (Detector, error)

type nativeStrategy struct {
	detector Detector
}

// NewNativeStrategy wraps a platform detector. It fails with
// ErrNativeUnavailable when the platform has none.
func NewNativeStrategy(factory DetectorFactory, formats []Format) (Strategy, error) {
	if factory == nil {
		return nil, ErrNativeUnavailable
	}
	d, err := factory(formats)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNativeUnavailable
	}
	return &nativeStrategy{detector: d}, nil
}

func (s *nativeStrategy) Mode() Mode     { return ModeNative }
func (s *nativeStrategy) Region() Region { return NativeRegion }
func (s *nativeStrategy) Admit() bool    { return true }

// Detect takes the first detection; simultaneous hits are not ranked.
func (s *nativeStrategy) Detect(ctx context.Context, frame image.Image) (string, error) {
	results, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.RawValue != "" {
			return r.RawValue, nil
		}
	}
	return "", nil
}

func (s *nativeStrategy) Close() error {
	if c, ok := s.detector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
