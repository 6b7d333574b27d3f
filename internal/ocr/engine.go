package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Engine produces text regions for a page image. A recognition failure for
// one page must not poison the engine for subsequent pages.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Region, error)
	Close() error
}

// Config holds ONNX engine settings. Model instantiation is expensive; build
// one engine per process and reuse it across documents.
type Config struct {
	DetectorModelPath   string
	RecognizerModelPath string
	DictPath            string

	MaxImageSize      int     // longest side fed to the detector
	BinarizeThreshold float32 // probability-map binarization threshold
	BoxMinConfidence  float64 // drop regions below this mean probability
	MinRegionSize     int     // drop components smaller than this in either dimension
	BoxPadRatio       float64 // expansion of detected boxes before cropping
	RecognizeHeight   int     // recognizer input height
	RecognizeMaxWidth int     // clamp for recognizer input width
	MinTextConfidence float64 // drop recognized text below this confidence
	NumThreads        int     // intra-op threads per session (0 = runtime default)
}

// DefaultConfig returns engine defaults tuned for 300 DPI plat scans.
func DefaultConfig() Config {
	return Config{
		MaxImageSize:      1920,
		BinarizeThreshold: 0.3,
		BoxMinConfidence:  0.5,
		MinRegionSize:     3,
		BoxPadRatio:       0.4,
		RecognizeHeight:   48,
		RecognizeMaxWidth: 1280,
		MinTextConfidence: 0.0,
	}
}

// ortEnvOnce guards process-wide ONNX Runtime environment initialization.
// The environment is shared by every session and torn down only at process
// exit, never per engine.
var ortEnvOnce sync.Once

func initEnvironment() error {
	var err error
	ortEnvOnce.Do(func() {
		if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		if !ort.IsInitialized() {
			err = ort.InitializeEnvironment()
		}
	})
	if err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// ONNXEngine runs detection and recognition ONNX sessions. Sessions are not
// proven safe for concurrent Run calls, so all access is serialized through
// mu; parallel callers queue rather than corrupt each other.
type ONNXEngine struct {
	cfg     Config
	det     *ort.DynamicAdvancedSession
	detIn   string
	detOut  string
	rec     *ort.DynamicAdvancedSession
	recIn   string
	recOut  string
	charset *Charset
	mu      sync.Mutex
}

// NewEngine loads both models and the dictionary. The returned engine is
// intended as a long-lived process-wide instance; Close releases the
// sessions at shutdown.
func NewEngine(cfg Config) (*ONNXEngine, error) {
	if cfg.DetectorModelPath == "" || cfg.RecognizerModelPath == "" {
		return nil, errors.New("detector and recognizer model paths are required")
	}
	for _, p := range []string{cfg.DetectorModelPath, cfg.RecognizerModelPath, cfg.DictPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model file not found: %s", p)
		}
	}
	if cfg.RecognizeHeight <= 0 {
		return nil, errors.New("recognizer height must be > 0")
	}

	if err := initEnvironment(); err != nil {
		return nil, err
	}

	charset, err := LoadCharset(cfg.DictPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}

	det, detIn, detOut, err := newSession(cfg.DetectorModelPath, cfg.NumThreads)
	if err != nil {
		return nil, fmt.Errorf("init detector session: %w", err)
	}
	rec, recIn, recOut, err := newSession(cfg.RecognizerModelPath, cfg.NumThreads)
	if err != nil {
		_ = det.Destroy()
		return nil, fmt.Errorf("init recognizer session: %w", err)
	}

	slog.Debug("ocr engine initialized",
		"detector", cfg.DetectorModelPath,
		"recognizer", cfg.RecognizerModelPath,
		"charset_tokens", len(charset.Tokens))

	return &ONNXEngine{
		cfg: cfg,
		det: det, detIn: detIn, detOut: detOut,
		rec: rec, recIn: recIn, recOut: recOut,
		charset: charset,
	}, nil
}

func newSession(modelPath string, numThreads int) (*ort.DynamicAdvancedSession, string, string, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, "", "", errors.New("model has no inputs or outputs")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, "", "", fmt.Errorf("create session options: %w", err)
	}
	defer func() {
		if derr := opts.Destroy(); derr != nil {
			slog.Warn("destroy session options", "error", derr)
		}
	}()
	if numThreads > 0 {
		if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, "", "", fmt.Errorf("set thread count: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, "", "", fmt.Errorf("create session: %w", err)
	}
	return session, inputs[0].Name, outputs[0].Name, nil
}

// Recognize detects text regions and recognizes their content. Output order
// follows the detector's raster order. Recognition of a single region failing
// drops that region only.
func (e *ONNXEngine) Recognize(ctx context.Context, img image.Image) ([]Region, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.det == nil || e.rec == nil {
		return nil, errors.New("engine is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := e.detect(img)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	regions := make([]Region, 0, len(boxes))
	for _, box := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, conf, err := e.recognizeRegion(img, box.rect)
		if err != nil {
			slog.Warn("region recognition failed", "box", box.rect, "error", err)
			continue
		}
		if text == "" || conf < e.cfg.MinTextConfidence {
			continue
		}
		regions = append(regions, Region{
			Polygon:    rectPolygon(box.rect),
			Box:        box.rect,
			Text:       text,
			Confidence: conf,
		})
	}
	return regions, nil
}

// Close destroys both sessions. The shared ONNX environment stays up for the
// rest of the process.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	if e.det != nil {
		if err := e.det.Destroy(); err != nil {
			firstErr = err
		}
		e.det = nil
	}
	if e.rec != nil {
		if err := e.rec.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.rec = nil
	}
	return firstErr
}

func rectPolygon(r image.Rectangle) []Point {
	return []Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
