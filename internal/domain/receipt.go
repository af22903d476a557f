package domain

import "time"

// Receipt owns the uploaded image payload. The bytes live in the row itself,
// no filesystem path is authoritative.
type Receipt struct {
	ID            int64           `db:"id"             json:"id"`
	Filename      string          `db:"filename"       json:"filename"`
	FileType      string          `db:"file_type"      json:"file_type"`
	FileData      []byte          `db:"file_data"      json:"-"`
	RawText       *string         `db:"raw_text"       json:"raw_text,omitempty"`
	ExtractedData []byte          `db:"extracted_data" json:"extracted_data,omitempty"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"     json:"updated_at"`
}
