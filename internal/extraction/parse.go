package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
)

// rawPayload mirrors the model's reply with loose typing. Models routinely
// return numbers as strings and vice versa, so coercion happens in clean.
type rawPayload struct {
	VendorName  any       `json:"vendor_name"`
	ExpenseDate any       `json:"expense_date"`
	Amount      any       `json:"amount"`
	Category    any       `json:"category"`
	Description any       `json:"description"`
	Notes       any       `json:"notes"`
	LineItems   []rawLine `json:"line_items"`
}

type rawLine struct {
	Description any `json:"description"`
	Category    any `json:"category"`
	Quantity    any `json:"quantity"`
	UnitPrice   any `json:"unit_price"`
	Amount      any `json:"amount"`
}

// parsePayload pulls one JSON object out of a completion that may be wrapped
// in markdown fences or surrounded by prose, then validates and cleans it.
func parsePayload(completion string, now time.Time) (*domain.ExtractedExpense, error) {
	text := strings.TrimSpace(completion)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in completion")
	}

	var raw rawPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in completion: %w", err)
	}

	return clean(&raw, now), nil
}

func clean(raw *rawPayload, now time.Time) *domain.ExtractedExpense {
	payload := &domain.ExtractedExpense{
		VendorName:  stringOr(raw.VendorName, "Unknown Vendor"),
		ExpenseDate: stringOr(raw.ExpenseDate, now.Format("2006-01-02")),
		Amount:      floatOr(raw.Amount, 0),
		Category:    string(domain.ParseCategory(stringOr(raw.Category, "other"))),
		Description: stringOr(raw.Description, ""),
		Notes:       stringOr(raw.Notes, ""),
	}

	for _, item := range raw.LineItems {
		line := domain.ExtractedLine{
			Description: stringOr(item.Description, ""),
			Amount:      floatOr(item.Amount, 0),
		}

		if category := stringOr(item.Category, ""); category != "" {
			line.Category = string(domain.ParseCategory(category))
		}
		if quantity, ok := toFloat(item.Quantity); ok {
			line.Quantity = &quantity
		}
		if unitPrice, ok := toFloat(item.UnitPrice); ok {
			line.UnitPrice = &unitPrice
		}

		// An entry without a description and without a positive amount
		// is noise, not a line item.
		if line.Description == "" && line.Amount <= 0 {
			continue
		}

		payload.LineItems = append(payload.LineItems, line)
	}

	return payload
}

func stringOr(value any, fallback string) string {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return fallback
}

func floatOr(value any, fallback float64) float64 {
	if f, ok := toFloat(value); ok {
		return f
	}

	return fallback
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
