package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

const DefaultMaxRetries = 3

// RetryResult reports the outcome of a retried extraction. Exactly one of
// Data and Err is set.
type RetryResult struct {
	Success  bool
	Data     *domain.ExtractedExpense
	Err      error
	Attempts int
}

// ExtractWithRetry retries Extract with exponential backoff (1s, 2s, 4s, ...)
// up to maxRetries attempts. All extraction failures are transient at this
// layer; exhaustion surfaces the last error.
func (c *Client) ExtractWithRetry(ctx context.Context, ocrText string, maxRetries int) RetryResult {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		c.log.DebugContext(ctx, "llm extraction attempt",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxRetries))

		data, err := c.Extract(ctx, ocrText)
		if err == nil {
			return RetryResult{Success: true, Data: data, Attempts: attempt}
		}

		lastErr = err
		c.log.WarnContext(ctx, "llm extraction attempt failed",
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()))

		if attempt == maxRetries {
			break
		}

		backoff := time.Duration(1<<(attempt-1)) * time.Second
		if err := c.sleep(ctx, backoff); err != nil {
			return RetryResult{Err: err, Attempts: attempt}
		}
	}

	return RetryResult{Err: lastErr, Attempts: maxRetries}
}
