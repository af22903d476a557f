package ocr

import "context"

// Engine identifiers form a closed set. Adding a backend means writing one
// Adapter and registering it, nothing else changes.
const (
	EngineTesseract = "tesseract"
	EngineEasyOCR   = "easyocr"
	EngineGOTOCR    = "got-ocr"
	EnginePaddleOCR = "paddleocr"
	EngineDonut     = "donut"
)

var Engines = []string{
	EngineTesseract,
	EngineEasyOCR,
	EngineGOTOCR,
	EnginePaddleOCR,
	EngineDonut,
}

// Neural reports whether the engine is a neural backend. Neural backends get
// a materially longer timeout budget than classical OCR.
func Neural(engine string) bool {
	return engine != EngineTesseract
}

// Result is what an adapter returns before sanitization. Fields and Items may
// carry arbitrarily shaped values since backends evolve independently; the
// router normalizes them before anything downstream sees them.
type Result struct {
	RawText string
	Fields  map[string]any
	Items   []any
}

type Adapter interface {
	Extract(ctx context.Context, image []byte, mimeType string, vendorHints []string) (*Result, error)
}
