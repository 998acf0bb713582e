package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/time/rate"
)

const DefaultFallbackFPS = 20

var zxingFormats = map[Format]gozxing.BarcodeFormat{
	FormatEAN13:   gozxing.BarcodeFormat_EAN_13,
	FormatEAN8:    gozxing.BarcodeFormat_EAN_8,
	FormatUPCA:    gozxing.BarcodeFormat_UPC_A,
	FormatUPCE:    gozxing.BarcodeFormat_UPC_E,
	FormatCode128: gozxing.BarcodeFormat_CODE_128,
	FormatCode39:  gozxing.BarcodeFormat_CODE_39,
	FormatCode93:  gozxing.BarcodeFormat_CODE_93,
	FormatITF:     gozxing.BarcodeFormat_ITF,
	FormatCodabar: gozxing.BarcodeFormat_CODABAR,
}

// zxingStrategy is the software fallback: an embedded decoder sampled at a
// capped rate over a wider centered region.
type zxingStrategy struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
	limiter *rate.Limiter
}

// NewZXingStrategy returns a factory for the software decoder sampling at
// most fps frames per second.
func NewZXingStrategy(fps float64) StrategyFactory {
	if fps <= 0 {
		fps = DefaultFallbackFPS
	}
	return func(formats []Format) (Strategy, error) {
		var linear []gozxing.BarcodeFormat
		wantQR := false
		for _, f := range formats {
			if f == FormatQRCode {
				wantQR = true
				continue
			}
			zf, ok := zxingFormats[f]
			if !ok {
				return nil, fmt.Errorf("unsupported symbology %q", f)
			}
			linear = append(linear, zf)
		}
		if len(linear) == 0 && !wantQR {
			return nil, fmt.Errorf("no symbologies enabled")
		}

		s := &zxingStrategy{
			hints:   map[gozxing.DecodeHintType]interface{}{},
			limiter: rate.NewLimiter(rate.Limit(fps), 1),
		}
		if len(linear) > 0 {
			s.hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = linear
			s.readers = linearReaders(linear, s.hints)
		}
		if wantQR {
			s.readers = append(s.readers, qrcode.NewQRCodeReader())
		}
		return s, nil
	}
}

func (s *zxingStrategy) Mode() Mode     { return ModeFallback }
func (s *zxingStrategy) Region() Region { return FallbackRegion }
func (s *zxingStrategy) Admit() bool    { return s.limiter.Allow() }

// linearReaders builds one reader per enabled 1D family. The EAN/UPC family
// shares a single reader that locates the guard pattern once per row.
func linearReaders(formats []gozxing.BarcodeFormat, hints map[gozxing.DecodeHintType]interface{}) []gozxing.Reader {
	var (
		readers []gozxing.Reader
		upcean  bool
	)
	for _, f := range formats {
		switch f {
		case gozxing.BarcodeFormat_EAN_13, gozxing.BarcodeFormat_EAN_8,
			gozxing.BarcodeFormat_UPC_A, gozxing.BarcodeFormat_UPC_E:
			upcean = true
		}
	}
	if upcean {
		readers = append(readers, oned.NewMultiFormatUPCEANReader(hints))
	}
	for _, f := range formats {
		switch f {
		case gozxing.BarcodeFormat_CODE_128:
			readers = append(readers, oned.NewCode128Reader())
		case gozxing.BarcodeFormat_CODE_39:
			readers = append(readers, oned.NewCode39Reader())
		case gozxing.BarcodeFormat_CODE_93:
			readers = append(readers, oned.NewCode93Reader())
		case gozxing.BarcodeFormat_ITF:
			readers = append(readers, oned.NewITFReader())
		case gozxing.BarcodeFormat_CODABAR:
			readers = append(readers, oned.NewCodaBarReader())
		}
	}
	return readers
}

// Detect tries linear symbologies first, then QR. A frame without a readable
// code is not an error.
func (s *zxingStrategy) Detect(ctx context.Context, frame image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(frame)
	if err != nil {
		return "", err
	}
	for _, r := range s.readers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := r.Decode(bmp, s.hints)
		r.Reset()
		if err == nil {
			return res.GetText(), nil
		}
	}
	return "", nil
}

func (s *zxingStrategy) Close() error {
	return nil
}
