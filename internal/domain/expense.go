package domain

import (
	"strings"
	"time"
)

type ExpenseCategory string

const (
	CategoryFeed           ExpenseCategory = "feed"
	CategorySeed           ExpenseCategory = "seed"
	CategoryMedication     ExpenseCategory = "medication"
	CategoryVeterinary     ExpenseCategory = "veterinary"
	CategoryInfrastructure ExpenseCategory = "infrastructure"
	CategoryEquipment      ExpenseCategory = "equipment"
	CategorySupplies       ExpenseCategory = "supplies"
	CategoryUtilities      ExpenseCategory = "utilities"
	CategoryLabor          ExpenseCategory = "labor"
	CategoryMaintenance    ExpenseCategory = "maintenance"
	CategoryOther          ExpenseCategory = "other"
)

// Categories is the closed set offered to the extraction model.
var Categories = []ExpenseCategory{
	CategoryFeed,
	CategorySeed,
	CategoryMedication,
	CategoryVeterinary,
	CategoryInfrastructure,
	CategoryEquipment,
	CategorySupplies,
	CategoryUtilities,
	CategoryLabor,
	CategoryMaintenance,
	CategoryOther,
}

// ParseCategory maps a free-form category string onto the closed set.
// Anything unrecognized falls back to CategoryOther so a hallucinated tag
// never fails an item.
func ParseCategory(s string) ExpenseCategory {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}

	return CategoryOther
}

type Expense struct {
	ID          int64           `db:"id"           json:"id"`
	Category    ExpenseCategory `db:"category"     json:"category"`
	Amount      float64         `db:"amount"       json:"amount"`
	Description string          `db:"description"  json:"description"`
	Notes       string          `db:"notes"        json:"notes,omitempty"`
	ExpenseDate time.Time       `db:"expense_date" json:"expense_date"`
	VendorID    *int64          `db:"vendor_id"    json:"vendor_id,omitempty"`
	ReceiptID   *int64          `db:"receipt_id"   json:"receipt_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}

type ExpenseLineItem struct {
	ID          int64            `db:"id"          json:"id"`
	ExpenseID   int64            `db:"expense_id"  json:"-"`
	Description string           `db:"description" json:"description"`
	Category    *ExpenseCategory `db:"category"    json:"category,omitempty"`
	Quantity    *float64         `db:"quantity"    json:"quantity,omitempty"`
	UnitPrice   *float64         `db:"unit_price"  json:"unit_price,omitempty"`
	Amount      float64          `db:"amount"      json:"amount"`
}
