package ocr_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmbooks/receipt_pipeline/internal/ocr"
)

func TestInferenceAdapter_Extract(t *testing.T) {
	t.Parallel()

	image := []byte("fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ocr/donut", r.URL.Path)

		var req struct {
			Image       string            `json:"image"`
			MimeType    string            `json:"mime_type"`
			VendorHints []string          `json:"vendor_hints"`
			Options     map[string]string `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		require.NoError(t, err)
		assert.Equal(t, image, decoded)
		assert.Equal(t, "image/png", req.MimeType)
		assert.Equal(t, []string{"Tractor Supply"}, req.VendorHints)
		assert.Equal(t, map[string]string{"task": "receipt"}, req.Options)

		fmt.Fprint(w, `{
			"raw_text": "TRACTOR SUPPLY",
			"vendor": "Tractor Supply",
			"total": 45.99,
			"date": "2026-03-15",
			"items": [{"description": "Feed", "amount": "45.99"}],
			"extra": {"confidence": 0.93}
		}`)
	}))
	defer server.Close()

	adapter := ocr.NewInferenceAdapter(ocr.EngineDonut, server.URL, map[string]string{"task": "receipt"})

	result, err := adapter.Extract(context.Background(), image, "image/png", []string{"Tractor Supply"})

	require.NoError(t, err)
	assert.Equal(t, "TRACTOR SUPPLY", result.RawText)
	assert.Equal(t, "Tractor Supply", result.Fields["vendor"])
	assert.Equal(t, 45.99, result.Fields["total"])
	assert.Equal(t, 0.93, result.Fields["confidence"])
	require.Len(t, result.Items, 1)
}

func TestInferenceAdapter_Extract_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := ocr.NewInferenceAdapter(ocr.EngineEasyOCR, server.URL, nil)

	_, err := adapter.Extract(context.Background(), []byte("img"), "image/png", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "model not loaded")
}
