package model

import "time"

const (
	HouseStatusActive   = "active"
	HouseStatusInactive = "inactive"
)

// ValidHouseStatus reports whether s is a recognised house status.
func ValidHouseStatus(s string) bool {
	return s == HouseStatusActive || s == HouseStatusInactive
}

type House struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HouseSummary is the short form attached to users.
type HouseSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
