package ocr

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// detectedBox is one candidate text region in original-image coordinates.
type detectedBox struct {
	rect image.Rectangle
	conf float64
}

// detect runs the detection model and post-processes the probability map into
// text boxes. Single scale; plat scans are axis-aligned so no rotated-box
// handling is attempted.
func (e *ONNXEngine) detect(img image.Image) ([]detectedBox, error) {
	resized, scaleX, scaleY := fitForDetection(img, e.cfg.MaxImageSize)
	data, w, h := normalizeNCHW(resized)

	probs, pw, ph, err := e.runDetection(data, w, h)
	if err != nil {
		return nil, err
	}

	comps := connectedComponents(probs, pw, ph, e.cfg.BinarizeThreshold)

	// Probability map coordinates may be a fraction of the network input.
	mapScaleX := float64(w) / float64(pw) * scaleX
	mapScaleY := float64(h) / float64(ph) * scaleY

	orig := img.Bounds()
	boxes := make([]detectedBox, 0, len(comps))
	for _, c := range comps {
		if c.maxX-c.minX+1 < e.cfg.MinRegionSize || c.maxY-c.minY+1 < e.cfg.MinRegionSize {
			continue
		}
		conf := c.sum / float64(c.count)
		if conf < e.cfg.BoxMinConfidence {
			continue
		}

		// The shrunk DB mask underestimates the text extent; pad by a
		// fraction of the region height before cropping.
		pad := int(float64(c.maxY-c.minY+1) * e.cfg.BoxPadRatio * mapScaleY)
		rect := image.Rect(
			int(float64(c.minX)*mapScaleX)-pad,
			int(float64(c.minY)*mapScaleY)-pad,
			int(float64(c.maxX+1)*mapScaleX)+pad,
			int(float64(c.maxY+1)*mapScaleY)+pad,
		).Intersect(orig)
		if rect.Empty() {
			continue
		}
		boxes = append(boxes, detectedBox{rect: rect, conf: conf})
	}

	slog.Debug("detection complete", "candidates", len(comps), "boxes", len(boxes))
	return boxes, nil
}

// runDetection executes the detection session and returns the probability map
// with its dimensions.
func (e *ONNXEngine) runDetection(data []float32, w, h int) ([]float32, int, int, error) {
	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer destroyValue(input)

	outputs := []ort.Value{nil}
	if err := e.det.Run([]ort.Value{input}, outputs); err != nil {
		return nil, 0, 0, fmt.Errorf("detector inference: %w", err)
	}
	defer destroyValue(outputs[0])

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, 0, 0, fmt.Errorf("expected float32 output tensor, got %T", outputs[0])
	}
	shape := out.GetShape()
	if len(shape) != 4 {
		return nil, 0, 0, fmt.Errorf("expected 4D probability map, got rank %d", len(shape))
	}

	pw, ph := int(shape[3]), int(shape[2])
	probs := make([]float32, pw*ph)
	copy(probs, out.GetData())
	return probs, pw, ph, nil
}

func destroyValue(v ort.Value) {
	if v == nil {
		return
	}
	if err := v.Destroy(); err != nil {
		fmt.Fprintf(os.Stderr, "Error destroying tensor: %v\n", err)
	}
}

// component is a 4-connected region of the binarized probability map.
type component struct {
	minX, minY, maxX, maxY int
	sum                    float64
	count                  int
}

// connectedComponents binarizes the probability map at thresh and labels
// 4-connected components with an iterative flood fill. Components are emitted
// in raster order of their first pixel, which fixes the detection order.
func connectedComponents(probs []float32, w, h int, thresh float32) []component {
	if w <= 0 || h <= 0 || len(probs) < w*h {
		return nil
	}
	visited := make([]bool, w*h)
	var comps []component
	stack := make([]int, 0, 256)

	for start := range w * h {
		if visited[start] || probs[start] < thresh {
			continue
		}
		c := component{minX: w, minY: h, maxX: -1, maxY: -1}
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			if x < c.minX {
				c.minX = x
			}
			if x > c.maxX {
				c.maxX = x
			}
			if y < c.minY {
				c.minY = y
			}
			if y > c.maxY {
				c.maxY = y
			}
			c.sum += float64(probs[i])
			c.count++

			if x > 0 && !visited[i-1] && probs[i-1] >= thresh {
				visited[i-1] = true
				stack = append(stack, i-1)
			}
			if x < w-1 && !visited[i+1] && probs[i+1] >= thresh {
				visited[i+1] = true
				stack = append(stack, i+1)
			}
			if y > 0 && !visited[i-w] && probs[i-w] >= thresh {
				visited[i-w] = true
				stack = append(stack, i-w)
			}
			if y < h-1 && !visited[i+w] && probs[i+w] >= thresh {
				visited[i+w] = true
				stack = append(stack, i+w)
			}
		}
		comps = append(comps, c)
	}
	return comps
}
