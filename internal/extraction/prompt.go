package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

// buildPrompt is deterministic for a given OCR text and date, which keeps
// extraction reproducible across retries within a day.
func buildPrompt(ocrText string, now time.Time) string {
	var categories strings.Builder
	for _, c := range domain.Categories {
		fmt.Fprintf(&categories, "  - %s\n", c)
	}

	return fmt.Sprintf(`You are an AI assistant that extracts structured expense data from receipt text.

Today's date is %s.

Available expense categories:
%s
Extract the following information from the receipt text below:
1. Vendor name ("Unknown" if unclear from context)
2. Expense date (YYYY-MM-DD format, use today's date if not found)
3. Total amount (Ensure that the sum of the line items and tax add up to this amount)
4. Brief description (vendor name + main items)
5. Line items with description, quantity (1 if unspecified), unit_price, category (default: "other"), and amount
6. Any relevant notes

Receipt text:
%s

Return ONLY a valid JSON object (no markdown, no explanation) with this structure:
{
  "vendor_name": "string",
  "expense_date": "YYYY-MM-DD",
  "amount": 0.00,
  "category": "selected from the given list",
  "description": "brief description",
  "notes": "any relevant notes or observations",
  "line_items": [
    {
      "description": "item description",
      "category": "selected from the given list",
      "quantity": 0.00,
      "unit_price": 0.00,
      "amount": 0.00
    }
  ]
}

JSON:`, now.Format("2006-01-02"), categories.String(), ocrText)
}
