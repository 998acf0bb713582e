package capture

import (
	"image"
	"image/draw"
)

// Region is a centered crop expressed as fractions of the frame.
type Region struct {
	WidthRatio  float64
	HeightRatio float64
}

var (
	NativeRegion   = Region{WidthRatio: 0.7, HeightRatio: 0.5}
	FallbackRegion = Region{WidthRatio: 0.85, HeightRatio: 0.6}
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// CropCenter returns the centered region of img. It shares pixels with img
// when the image type supports SubImage.
func CropCenter(img image.Image, r Region) image.Image {
	if r.WidthRatio <= 0 || r.HeightRatio <= 0 || (r.WidthRatio >= 1 && r.HeightRatio >= 1) {
		return img
	}

	b := img.Bounds()
	w := int(float64(b.Dx()) * min(r.WidthRatio, 1))
	h := int(float64(b.Dy()) * min(r.HeightRatio, 1))
	if w <= 0 || h <= 0 {
		return img
	}

	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	rect := image.Rect(x0, y0, x0+w, y0+h)

	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
