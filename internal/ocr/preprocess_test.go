package ocr_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmbooks/receipt_pipeline/internal/ocr"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))))

	return buf.Bytes()
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		mimeType string
		wantErr  string
	}{
		{
			name:     "valid png",
			data:     encodePNG(t, 100, 200),
			mimeType: "image/png",
		},
		{
			name:     "pdf passes through undecoded",
			data:     []byte("%PDF-1.4 whatever"),
			mimeType: "application/pdf",
		},
		{
			name:     "empty payload",
			data:     nil,
			mimeType: "image/png",
			wantErr:  "empty payload",
		},
		{
			name:     "unsupported mime type",
			data:     []byte("hello"),
			mimeType: "text/plain",
			wantErr:  "unsupported file type",
		},
		{
			name:     "garbage image bytes",
			data:     []byte("definitely not a png"),
			mimeType: "image/png",
			wantErr:  "undecodable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ocr.ValidatePayload(tt.data, tt.mimeType)

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
