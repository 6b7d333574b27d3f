// Package ocr provides text recognition for plat page images. The Engine
// interface is the black-box recognizer contract the pipeline depends on; the
// ONNX implementation runs PaddleOCR-style detection and recognition models.
package ocr

import "image"

// Point is an image coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is one recognized text region: a 4-point polygon, the recognized
// string, and a recognition confidence in [0, 1]. Regions are returned in
// detection order, which is raster order of the probability map, not reading
// order; the aggregator deliberately preserves it.
type Region struct {
	Polygon    []Point         `json:"polygon"`
	Box        image.Rectangle `json:"-"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
}
