package model

import "time"

// Coarse system role tags stored on an identity.
const (
	RoleTagAdmin   = "fc_admin"
	RoleTagManager = "fc_manager"
	RoleTagViewer  = "fc_viewer"
)

// RoleTagFor maps an application role to the identity role tag.
func RoleTagFor(r Role) string {
	switch r {
	case RoleAdmin:
		return RoleTagAdmin
	case RoleManager:
		return RoleTagManager
	case RoleViewer:
		return RoleTagViewer
	}
	return ""
}

// Capabilities are the coarse flags granted by the identity collaborator.
type Capabilities struct {
	Administrator     bool `json:"administrator"`
	ManageAll         bool `json:"manage_all"`
	ManageMedications bool `json:"manage_medications"`
	ViewMedications   bool `json:"view_medications"`
}

type Identity struct {
	ID              int64     `json:"id"`
	Login           string    `json:"login"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DisplayName     string    `json:"display_name"`
	PasswordHash    string    `json:"-"`
	IsAdministrator bool      `json:"is_administrator"`
	RoleTag         string    `json:"role_tag"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Capabilities derives the capability flags from the administrator flag and
// the role tag. Stronger tags imply the weaker capabilities.
func (i Identity) Capabilities() Capabilities {
	c := Capabilities{Administrator: i.IsAdministrator}
	switch i.RoleTag {
	case RoleTagAdmin:
		c.ManageAll = true
		c.ManageMedications = true
		c.ViewMedications = true
	case RoleTagManager:
		c.ManageMedications = true
		c.ViewMedications = true
	case RoleTagViewer:
		c.ViewMedications = true
	}
	if c.Administrator {
		c.ManageAll = true
		c.ManageMedications = true
		c.ViewMedications = true
	}
	return c
}
