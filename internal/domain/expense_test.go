package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want domain.ExpenseCategory
	}{
		{"feed", domain.CategoryFeed},
		{"  Veterinary ", domain.CategoryVeterinary},
		{"EQUIPMENT", domain.CategoryEquipment},
		{"groceries", domain.CategoryOther},
		{"", domain.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ParseCategory(tt.in), "input %q", tt.in)
	}
}

func TestItemStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.ItemStatusPending.Terminal())
	assert.False(t, domain.ItemStatusProcessing.Terminal())
	assert.True(t, domain.ItemStatusCompleted.Terminal())
	assert.True(t, domain.ItemStatusFailed.Terminal())
}
