package model

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire format of expiration dates.
const DateLayout = "2006-01-02"

type Medication struct {
	ID               int64     `json:"id"`
	HouseID          int64     `json:"house_id"`
	CommercialName   string    `json:"commercial_name"`
	ActiveIngredient string    `json:"active_ingredient"`
	Description      string    `json:"description"`
	LeafletURL       string    `json:"leaflet_url"`
	PackageCount     int       `json:"package_count"`
	TotalQuantity    int       `json:"total_quantity"`
	ExpirationDate   string    `json:"expiration_date"`
	MinQuantityAlert int       `json:"min_quantity_alert"`
	CreatedBy        *int64    `json:"created_by"`
	UpdatedBy        *int64    `json:"updated_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Expiry parses ExpirationDate as midnight in loc.
func (m Medication) Expiry(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, m.ExpirationDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiration date %q: %w", m.ExpirationDate, err)
	}
	return t, nil
}

// MedicationWithHouse carries the owning house name for digests.
type MedicationWithHouse struct {
	Medication
	HouseName string `json:"house_name"`
}

const (
	HistoryCreate = "create"
	HistoryUpdate = "update"
	HistoryDelete = "delete"
)

type HistoryEntry struct {
	ID           int64     `json:"id"`
	MedicationID int64     `json:"medication_id"`
	HouseID      int64     `json:"house_id"`
	Action       string    `json:"action"`
	ActorID      int64     `json:"actor_id"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}
