package auth

import "github.com/farmacase/farmacase/internal/model"

// ResolveRole returns the effective role of an actor.
//
// Precedence:
//  1. a stored application role wins;
//  2. administrator or manage-all capability resolves to admin;
//  3. manage-medications resolves to manager;
//  4. view-medications resolves to viewer.
//
// An actor with none of these has no role.
func ResolveRole(stored model.Role, caps model.Capabilities) model.Role {
	if stored != "" {
		return stored
	}
	switch {
	case caps.Administrator || caps.ManageAll:
		return model.RoleAdmin
	case caps.ManageMedications:
		return model.RoleManager
	case caps.ViewMedications:
		return model.RoleViewer
	}
	return ""
}
