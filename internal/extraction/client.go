package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

const (
	// llama.cpp ignores the model name and uses whatever is loaded.
	modelName   = "local-model"
	temperature = 0.1
	maxTokens   = 2048
)

// Client extracts structured expense data from OCR text via a locally hosted
// LLM behind an OpenAI-style chat completions endpoint.
type Client struct {
	log     *slog.Logger
	baseURL string
	client  *http.Client

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
		sleep:   sleepContext,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract sends one OCR text through the model and parses the reply. Every
// failure mode here (connection, status, timeout, malformed reply) is
// transient from the caller's point of view; ExtractWithRetry owns the retry
// policy.
func (c *Client) Extract(ctx context.Context, ocrText string) (*domain.ExtractedExpense, error) {
	body, err := json.Marshal(chatRequest{
		Model:       modelName,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(ocrText, c.now())}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stop:        []string{"</json>", "```"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling llm at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, payload)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding llm response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("llm response has no choices")
	}

	completion := parsed.Choices[0].Message.Content
	c.log.DebugContext(ctx, "llm completion received", slog.Int("length", len(completion)))

	payload, err := parsePayload(completion, c.now())
	if err != nil {
		return nil, fmt.Errorf("parsing llm reply: %w", err)
	}

	return payload, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
