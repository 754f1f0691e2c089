package model

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleViewer
}

// User is the application-layer record bound to one identity. Email and
// DisplayName are read through from the identity.
type User struct {
	ID          int64          `json:"id"`
	IdentityID  int64          `json:"identity_id"`
	Role        Role           `json:"role"`
	Phone       string         `json:"phone"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Houses      []HouseSummary `json:"houses"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Recipient is a user reachable by email for notification purposes.
type Recipient struct {
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}
