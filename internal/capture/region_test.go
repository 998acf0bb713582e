package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCropCenter(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 600))

	out := CropCenter(img, NativeRegion)
	assert.Equal(t, image.Rect(150, 150, 850, 450), out.Bounds())

	out = CropCenter(img, FallbackRegion)
	assert.Equal(t, image.Rect(75, 120, 925, 480), out.Bounds())
}

func TestCropCenterFullFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, img, CropCenter(img, Region{WidthRatio: 1, HeightRatio: 1}))
	assert.Same(t, img, CropCenter(img, Region{}))
}

// plainImage has no SubImage method.
type plainImage struct{ image.Image }

func TestCropCenterCopiesWithoutSubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src.Set(5, 5, color.RGBA{R: 255, A: 255})

	out := CropCenter(plainImage{src}, Region{WidthRatio: 0.5, HeightRatio: 0.5})
	assert.Equal(t, image.Rect(0, 0, 5, 5), out.Bounds())

	r, _, _, _ := out.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
