package domain

import "time"

// BatchUpload groups receipts processed together under one OCR engine choice.
// The token is the only identifier callers ever see.
type BatchUpload struct {
	ID             int64       `db:"id"              json:"-"`
	Token          string      `db:"token"           json:"token"`
	UserID         int64       `db:"user_id"         json:"-"`
	OCREngine      string      `db:"ocr_engine"      json:"ocr_engine"`
	TotalCount     int         `db:"total_count"     json:"total_count"`
	ProcessedCount int         `db:"processed_count" json:"processed_count"`
	SuccessCount   int         `db:"success_count"   json:"success_count"`
	ErrorCount     int         `db:"error_count"     json:"error_count"`
	Status         BatchStatus `db:"status"          json:"status"`
	CreatedAt      time.Time   `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"      json:"updated_at"`
}

type BatchItem struct {
	ID                 int64      `db:"id"                  json:"id"`
	BatchID            int64      `db:"batch_id"            json:"-"`
	ReceiptID          int64      `db:"receipt_id"          json:"receipt_id"`
	ExpenseID          *int64     `db:"expense_id"          json:"expense_id,omitempty"`
	Filename           string     `db:"filename"            json:"filename"`
	Status             ItemStatus `db:"status"              json:"status"`
	ErrorMessage       string     `db:"error_message"       json:"error_message,omitempty"`
	OCRAttempts        int        `db:"ocr_attempts"        json:"ocr_attempts"`
	ExtractionAttempts int        `db:"extraction_attempts" json:"extraction_attempts"`
	CreatedAt          time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"          json:"updated_at"`
}
