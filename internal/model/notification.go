package model

import "time"

const (
	NotificationExpiration  = "expiration"
	NotificationLowQuantity = "low_quantity"

	ReadStatusRead   = "read"
	ReadStatusUnread = "unread"
)

type Notification struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	MedicationID int64     `json:"medication_id"`
	SentAt       time.Time `json:"sent_at"`
	ReadStatus   string    `json:"read_status"`
}

// UserNotification is a notification joined with its medication and house.
type UserNotification struct {
	Notification
	CommercialName   string `json:"commercial_name"`
	ActiveIngredient string `json:"active_ingredient"`
	HouseName        string `json:"house_name"`
}

// NotificationEvent is one line of the notification engine's activity log.
type NotificationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
}
