package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// InferenceAdapter talks to a neural OCR backend served over HTTP. One
// instance per engine; the options map carries engine-specific knobs the
// inference service understands (got-ocr's ocr_type, donut's task, ...).
type InferenceAdapter struct {
	engine  string
	baseURL string
	options map[string]string
	client  *http.Client
}

func NewInferenceAdapter(engine, baseURL string, options map[string]string) *InferenceAdapter {
	return &InferenceAdapter{
		engine:  engine,
		baseURL: baseURL,
		options: options,
		// The per-item deadline is enforced by the caller; the client
		// itself stays unbounded so a slow model is abandoned, not killed.
		client: &http.Client{},
	}
}

type inferenceRequest struct {
	Image       string            `json:"image"`
	MimeType    string            `json:"mime_type"`
	VendorHints []string          `json:"vendor_hints,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

type inferenceResponse struct {
	RawText string         `json:"raw_text"`
	Vendor  any            `json:"vendor"`
	Total   any            `json:"total"`
	Date    any            `json:"date"`
	Items   []any          `json:"items"`
	Extra   map[string]any `json:"extra"`
}

func (a *InferenceAdapter) Extract(
	ctx context.Context,
	image []byte,
	mimeType string,
	vendorHints []string,
) (*Result, error) {
	body, err := json.Marshal(inferenceRequest{
		Image:       base64.StdEncoding.EncodeToString(image),
		MimeType:    mimeType,
		VendorHints: vendorHints,
		Options:     a.options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling inference request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/ocr/%s", a.baseURL, a.engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference service status %d: %s", resp.StatusCode, payload)
	}

	var parsed inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding inference response: %w", err)
	}

	fields := map[string]any{
		"vendor": parsed.Vendor,
		"total":  parsed.Total,
		"date":   parsed.Date,
	}
	for key, value := range parsed.Extra {
		fields[key] = value
	}

	return &Result{
		RawText: parsed.RawText,
		Fields:  fields,
		Items:   parsed.Items,
	}, nil
}
