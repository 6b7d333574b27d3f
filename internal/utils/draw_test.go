package utils

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawRectOutline(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{R: 255, A: 255}
	DrawRect(dst, image.Rect(5, 5, 15, 15), red, 1)

	assert.Equal(t, red, dst.RGBAAt(5, 5), "corner painted")
	assert.Equal(t, red, dst.RGBAAt(14, 5), "top edge painted")
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(10, 10), "interior untouched")
}

func TestDrawPolygonClosesShape(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	DrawPolygon(dst, []image.Point{{1, 1}, {8, 1}, {8, 8}, {1, 8}}, white, 1)

	// Closing segment from (1,8) back to (1,1).
	assert.Equal(t, white, dst.RGBAAt(1, 4))
}

func TestDrawPolygonTooFewPoints(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	DrawPolygon(dst, []image.Point{{1, 1}}, color.White, 1)
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(1, 1))
}

func TestDrawLabelPaintsPixels(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 60, 20))
	DrawLabel(dst, 2, 14, "OK", color.RGBA{G: 255, A: 255})

	var painted bool
	for y := 0; y < 20 && !painted; y++ {
		for x := 0; x < 60 && !painted; x++ {
			if dst.RGBAAt(x, y).G > 0 {
				painted = true
			}
		}
	}
	assert.True(t, painted)
}

func TestSavePNGAndLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	require.NoError(t, SavePNG(path, src))

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("scan.PNG"))
	assert.True(t, IsSupportedImage("scan.jpeg"))
	assert.True(t, IsSupportedImage("scan.bmp"))
	assert.False(t, IsSupportedImage("scan.pdf"))
	assert.False(t, IsSupportedImage("scan"))
}

func TestToRGBAIsMutableCopy(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	dst := ToRGBA(src)
	dst.Set(0, 0, color.RGBA{R: 255, A: 255})
	assert.Equal(t, uint8(0), src.GrayAt(0, 0).Y, "source untouched")
}
