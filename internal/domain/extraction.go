package domain

// ExtractedExpense is the payload the extraction model produces from OCR
// text. It lives for exactly one processing pass: produced by the extraction
// client, consumed by the materializer, never persisted as its own row.
// Categories stay free-form strings here; mapping onto the closed enum is the
// materializer's job.
type ExtractedExpense struct {
	VendorName  string          `json:"vendor_name"`
	ExpenseDate string          `json:"expense_date"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Notes       string          `json:"notes"`
	LineItems   []ExtractedLine `json:"line_items"`
}

type ExtractedLine struct {
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Amount      float64  `json:"amount"`
}
