package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// detectorSizeMultiple is the stride the detection model requires input
// dimensions to be a multiple of.
const detectorSizeMultiple = 32

// fitForDetection resizes an image so the longest side is at most maxSize and
// both dimensions are multiples of the detector stride. Returns the resized
// image and the per-axis scale factors back to original coordinates.
func fitForDetection(img image.Image, maxSize int) (image.Image, float64, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	scale := 1.0
	if longest := max(w, h); longest > maxSize {
		scale = float64(maxSize) / float64(longest)
	}
	tw := roundToMultiple(int(float64(w)*scale), detectorSizeMultiple)
	th := roundToMultiple(int(float64(h)*scale), detectorSizeMultiple)

	resized := imaging.Resize(img, tw, th, imaging.Linear)
	return resized, float64(w) / float64(tw), float64(h) / float64(th)
}

func roundToMultiple(v, m int) int {
	if v < m {
		return m
	}
	r := (v / m) * m
	if v-r >= m/2 {
		r += m
	}
	if r < m {
		r = m
	}
	return r
}

// normalizeNCHW converts an image into a float32 tensor in NCHW layout with
// pixel values scaled to [0, 1].
func normalizeNCHW(img image.Image) ([]float32, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	data := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			data[i] = float32(r>>8) / 255.0
			data[plane+i] = float32(g>>8) / 255.0
			data[2*plane+i] = float32(bl>>8) / 255.0
		}
	}
	return data, w, h
}

// prepareForRecognition crops a region, scales it to the recognizer input
// height preserving aspect ratio, and clamps the width.
func prepareForRecognition(img image.Image, box image.Rectangle, height, maxWidth int) image.Image {
	crop := imaging.Crop(img, box)
	cb := crop.Bounds()
	if cb.Dx() == 0 || cb.Dy() == 0 {
		return crop
	}
	w := int(float64(cb.Dx()) * float64(height) / float64(cb.Dy()))
	if w < 1 {
		w = 1
	}
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return imaging.Resize(crop, w, height, imaging.Linear)
}
