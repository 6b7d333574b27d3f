package ocr

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logitRow builds a C-wide row with a spike at idx.
func logitRow(classes, idx int) []float32 {
	row := make([]float32, classes)
	for i := range row {
		row[i] = -5
	}
	row[idx] = 5
	return row
}

func TestDecodeCTCGreedyCollapsesRepeatsAndBlanks(t *testing.T) {
	classes := 4
	// Sequence: 1 1 blank 1 2 2 blank → decoded 1, 1, 2
	seq := []int{1, 1, 0, 1, 2, 2, 0}
	logits := make([]float32, 0, len(seq)*classes)
	for _, idx := range seq {
		logits = append(logits, logitRow(classes, idx)...)
	}

	indices, probs := decodeCTCGreedy(logits, len(seq), classes)
	assert.Equal(t, []int{1, 1, 2}, indices)
	require.Len(t, probs, 3)
	for _, p := range probs {
		assert.Greater(t, p, 0.9, "spiked logits should decode with high confidence")
	}
}

func TestDecodeCTCGreedyAllBlank(t *testing.T) {
	classes := 3
	logits := append(logitRow(classes, 0), logitRow(classes, 0)...)
	indices, probs := decodeCTCGreedy(logits, 2, classes)
	assert.Empty(t, indices)
	assert.Empty(t, probs)
}

func TestDecodeCTCGreedyInvalidInput(t *testing.T) {
	indices, probs := decodeCTCGreedy(nil, 0, 0)
	assert.Nil(t, indices)
	assert.Nil(t, probs)

	indices, _ = decodeCTCGreedy(make([]float32, 3), 2, 3)
	assert.Nil(t, indices, "short logit buffer")
}

func TestProbOfPassthroughForProbabilities(t *testing.T) {
	row := []float32{0.1, 0.7, 0.2}
	assert.InDelta(t, 0.7, probOf(row, 1), 1e-6)
}

func TestCleanTextNormalizesAndTrims(t *testing.T) {
	// "e" + combining acute composes to a single rune under NFC.
	assert.Equal(t, "é", cleanText("  é "))
	assert.Equal(t, "", cleanText("   "))
}

func TestCharsetTokenMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFA\nB\n\nC\n"), 0o600))

	cs, err := LoadCharset(path)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, cs.Tokens)

	assert.Equal(t, "", cs.Token(0), "index 0 is the CTC blank")
	assert.Equal(t, "A", cs.Token(1))
	assert.Equal(t, "C", cs.Token(3))
	assert.Equal(t, "", cs.Token(4))
}

func TestLoadCharsetErrors(t *testing.T) {
	_, err := LoadCharset("")
	assert.Error(t, err)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o600))
	_, err = LoadCharset(empty)
	assert.Error(t, err)
}

func TestRectPolygonCorners(t *testing.T) {
	poly := rectPolygon(image.Rect(1, 2, 5, 7))
	require.Len(t, poly, 4)
	assert.Equal(t, Point{1, 2}, poly[0])
	assert.Equal(t, Point{5, 2}, poly[1])
	assert.Equal(t, Point{5, 7}, poly[2])
	assert.Equal(t, Point{1, 7}, poly[3])
}

func TestFitForDetectionBoundsAndScale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3000, 1500))
	resized, sx, sy := fitForDetection(img, 960)

	rb := resized.Bounds()
	assert.LessOrEqual(t, rb.Dx(), 960)
	assert.Zero(t, rb.Dx()%detectorSizeMultiple)
	assert.Zero(t, rb.Dy()%detectorSizeMultiple)
	assert.InDelta(t, 3000.0/float64(rb.Dx()), sx, 1e-9)
	assert.InDelta(t, 1500.0/float64(rb.Dy()), sy, 1e-9)
}

func TestNormalizeNCHWRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	data, w, h := normalizeNCHW(img)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	require.Len(t, data, 3*4)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}
