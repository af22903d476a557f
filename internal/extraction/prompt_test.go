package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt("TRACTOR SUPPLY\nTOTAL 45.99", testNow)

	assert.Contains(t, prompt, "Today's date is 2026-08-20.")
	assert.Contains(t, prompt, "TRACTOR SUPPLY\nTOTAL 45.99")

	for _, category := range domain.Categories {
		assert.Contains(t, prompt, "- "+string(category))
	}

	assert.Equal(t, prompt, buildPrompt("TRACTOR SUPPLY\nTOTAL 45.99", testNow), "prompt must be deterministic")
}
