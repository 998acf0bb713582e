package capture

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeCentered renders m in black on a white w×h frame.
func placeCentered(t *testing.T, m *gozxing.BitMatrix, w, h int) image.Image {
	t.Helper()
	require.LessOrEqual(t, m.GetWidth(), w)
	require.LessOrEqual(t, m.GetHeight(), h)

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	ox := (w - m.GetWidth()) / 2
	oy := (h - m.GetHeight()) / 2
	for y := 0; y < m.GetHeight(); y++ {
		for x := 0; x < m.GetWidth(); x++ {
			if m.Get(x, y) {
				img.SetGray(ox+x, oy+y, color.Gray{})
			}
		}
	}
	return img
}

func newFallback(t *testing.T, formats []Format) Strategy {
	t.Helper()
	s, err := NewZXingStrategy(DefaultFallbackFPS)(formats)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestZXingDetectsCenteredCodes(t *testing.T) {
	tests := []struct {
		name   string
		writer gozxing.Writer
		format gozxing.BarcodeFormat
		text   string
		w, h   int
	}{
		{"ean13", oned.NewEAN13Writer(), gozxing.BarcodeFormat_EAN_13, "4006381333931", 300, 120},
		{"code128", oned.NewCode128Writer(), gozxing.BarcodeFormat_CODE_128, "POS-000123", 400, 120},
		{"code39", oned.NewCode39Writer(), gozxing.BarcodeFormat_CODE_39, "SKU42", 400, 120},
		{"qr", qrcode.NewQRCodeWriter(), gozxing.BarcodeFormat_QR_CODE, "hello-qr", 200, 200},
	}

	s := newFallback(t, DefaultFormats)
	assert.Equal(t, ModeFallback, s.Mode())
	assert.Equal(t, FallbackRegion, s.Region())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.writer.Encode(tt.text, tt.format, tt.w, tt.h, nil)
			require.NoError(t, err)

			frame := placeCentered(t, m, 640, 480)
			code, err := s.Detect(context.Background(), CropCenter(frame, s.Region()))
			require.NoError(t, err)
			assert.Equal(t, tt.text, code)
		})
	}
}

func TestZXingBlankFrameIsNotAnError(t *testing.T) {
	s := newFallback(t, DefaultFormats)

	frame := placeCentered(t, &gozxing.BitMatrix{}, 640, 480)
	code, err := s.Detect(context.Background(), CropCenter(frame, s.Region()))
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestZXingHonorsEnabledFormats(t *testing.T) {
	m, err := oned.NewCode128Writer().Encode("POS-000123", gozxing.BarcodeFormat_CODE_128, 400, 120, nil)
	require.NoError(t, err)
	frame := CropCenter(placeCentered(t, m, 640, 480), FallbackRegion)

	s := newFallback(t, []Format{FormatEAN13, FormatQRCode})
	code, err := s.Detect(context.Background(), frame)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestZXingRejectsUnknownFormats(t *testing.T) {
	_, err := NewZXingStrategy(DefaultFallbackFPS)([]Format{"aztec"})
	assert.Error(t, err)

	_, err = NewZXingStrategy(DefaultFallbackFPS)(nil)
	assert.Error(t, err)
}

func TestZXingAdmitCapsSamplingRate(t *testing.T) {
	s, err := NewZXingStrategy(5)(DefaultFormats)
	require.NoError(t, err)

	assert.True(t, s.Admit())
	assert.False(t, s.Admit())
	assert.False(t, s.Admit())

	// One token returns every 200ms at 5 fps.
	assert.Eventually(t, s.Admit, time.Second, 20*time.Millisecond)

	admitted := 0
	for i := 0; i < 1000; i++ {
		if s.Admit() {
			admitted++
		}
	}
	assert.LessOrEqual(t, admitted, 1)
}
