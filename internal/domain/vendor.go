package domain

import "time"

type Vendor struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Address   string    `db:"address"    json:"address,omitempty"`
	Phone     string    `db:"phone"      json:"phone,omitempty"`
	Website   string    `db:"website"    json:"website,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
