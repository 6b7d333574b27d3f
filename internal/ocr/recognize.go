package ocr

import (
	"fmt"
	"image"
	"math"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/text/unicode/norm"
)

// recognizeRegion crops one detected box, runs the recognition model and
// CTC-decodes the result. Returns the cleaned text and mean per-character
// probability.
func (e *ONNXEngine) recognizeRegion(img image.Image, box image.Rectangle) (string, float64, error) {
	prepared := prepareForRecognition(img, box, e.cfg.RecognizeHeight, e.cfg.RecognizeMaxWidth)
	data, w, h := normalizeNCHW(prepared)
	if w == 0 || h == 0 {
		return "", 0, nil
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), data)
	if err != nil {
		return "", 0, fmt.Errorf("create input tensor: %w", err)
	}
	defer destroyValue(input)

	outputs := []ort.Value{nil}
	if err := e.rec.Run([]ort.Value{input}, outputs); err != nil {
		return "", 0, fmt.Errorf("recognizer inference: %w", err)
	}
	defer destroyValue(outputs[0])

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return "", 0, fmt.Errorf("expected float32 output tensor, got %T", outputs[0])
	}
	shape := out.GetShape()
	if len(shape) != 3 {
		return "", 0, fmt.Errorf("expected [N,T,C] output, got rank %d", len(shape))
	}

	steps, classes := int(shape[1]), int(shape[2])
	indices, probs := decodeCTCGreedy(out.GetData(), steps, classes)

	var sb strings.Builder
	var confSum float64
	var emitted int
	for i, idx := range indices {
		tok := e.charset.Token(idx)
		if tok == "" {
			continue
		}
		sb.WriteString(tok)
		confSum += probs[i]
		emitted++
	}
	if emitted == 0 {
		return "", 0, nil
	}
	return cleanText(sb.String()), confSum / float64(emitted), nil
}

// decodeCTCGreedy collapses a [T, C] logit sequence with best-path decoding:
// argmax per timestep, merge repeats, drop blanks (class 0). Returns the kept
// class indices and their probabilities.
func decodeCTCGreedy(logits []float32, steps, classes int) ([]int, []float64) {
	if steps <= 0 || classes <= 0 || len(logits) < steps*classes {
		return nil, nil
	}
	indices := make([]int, 0, steps)
	probs := make([]float64, 0, steps)
	prev := -1
	for t := range steps {
		row := logits[t*classes : (t+1)*classes]
		idx, _ := argmax(row)
		if idx != prev && idx != 0 {
			indices = append(indices, idx)
			probs = append(probs, probOf(row, idx))
		}
		prev = idx
	}
	return indices, probs
}

func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx, best := 0, v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > best {
			idx, best = i, v[i]
		}
	}
	return idx, best
}

// probOf returns v[idx] when v already looks like a probability distribution,
// otherwise its stable softmax probability.
func probOf(v []float32, idx int) float64 {
	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		return float64(v[idx])
	}
	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - maxV))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-maxV)) / denom
}

// cleanText is the only normalization the recognizer applies: NFC plus
// trimming. Downstream aggregation deliberately adds nothing further.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
