package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

const maxImagePixels = 50_000_000

// ValidatePayload checks that an uploaded payload is decodable before any OCR
// backend is asked to chew on it. PDFs are passed through untouched; the
// adapters own PDF handling.
func ValidatePayload(data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}

	if mimeType == "application/pdf" {
		return nil
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("unsupported file type %q", mimeType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("undecodable %s payload: %w", mimeType, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxImagePixels {
		return fmt.Errorf("implausible %s dimensions %dx%d", format, cfg.Width, cfg.Height)
	}

	return nil
}
