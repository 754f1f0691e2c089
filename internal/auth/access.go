package auth

import (
	"fmt"

	"github.com/farmacase/farmacase/internal/model"
)

// UserLookup resolves application users and their house assignments.
type UserLookup interface {
	GetByIdentityID(identityID int64) (*model.User, error)
	IsAssigned(userID, houseID int64) (bool, error)
}

// HouseLister lists houses for visibility checks.
type HouseLister interface {
	ListAll() ([]model.House, error)
	ListAssigned(userID int64) ([]model.House, error)
}

// MedicationLocator finds the house owning a medication.
type MedicationLocator interface {
	HouseOf(medicationID int64) (houseID int64, found bool, err error)
}

// Evaluator answers permission questions for an actor. It has no side
// effects; every method fails closed on storage errors.
type Evaluator struct {
	users       UserLookup
	houses      HouseLister
	medications MedicationLocator
}

func NewEvaluator(users UserLookup, houses HouseLister, medications MedicationLocator) *Evaluator {
	return &Evaluator{users: users, houses: houses, medications: medications}
}

// MedicationAccess describes the target of a medication mutation. For a
// create only HouseID is set; for update and delete MedicationID is set and
// the owning house is resolved first.
type MedicationAccess struct {
	HouseID      int64
	MedicationID int64
}

// Scope is the set of houses an actor may read. All is true for admins.
type Scope struct {
	All      bool
	HouseIDs []int64
}

// Contains reports whether houseID is inside the scope.
func (s Scope) Contains(houseID int64) bool {
	if s.All {
		return true
	}
	for _, id := range s.HouseIDs {
		if id == houseID {
			return true
		}
	}
	return false
}

func (e *Evaluator) appUser(a Actor) (*model.User, error) {
	u, err := e.users.GetByIdentityID(a.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("resolve app user: %w", err)
	}
	return u, nil
}

// IsAdmin checks the elevated capabilities first, then the stored role.
func (e *Evaluator) IsAdmin(a Actor) (bool, error) {
	if a.Capabilities.Administrator || a.Capabilities.ManageAll {
		return true, nil
	}
	u, err := e.appUser(a)
	if err != nil {
		return false, err
	}
	return u != nil && u.Role == model.RoleAdmin, nil
}

// RoleOf returns the stored role, falling back to capability inference.
func (e *Evaluator) RoleOf(a Actor) (model.Role, error) {
	u, err := e.appUser(a)
	if err != nil {
		return "", err
	}
	var stored model.Role
	if u != nil {
		stored = u.Role
	}
	return ResolveRole(stored, a.Capabilities), nil
}

// HousesVisibleTo returns all houses for admins and the assigned houses,
// ordered by name, for everyone else.
func (e *Evaluator) HousesVisibleTo(a Actor) ([]model.House, error) {
	admin, err := e.IsAdmin(a)
	if err != nil {
		return nil, err
	}
	if admin {
		return e.houses.ListAll()
	}
	u, err := e.appUser(a)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return []model.House{}, nil
	}
	return e.houses.ListAssigned(u.ID)
}

// ScopeOf returns the read scope of the actor.
func (e *Evaluator) ScopeOf(a Actor) (Scope, error) {
	admin, err := e.IsAdmin(a)
	if err != nil {
		return Scope{}, err
	}
	if admin {
		return Scope{All: true}, nil
	}
	houses, err := e.HousesVisibleTo(a)
	if err != nil {
		return Scope{}, err
	}
	ids := make([]int64, 0, len(houses))
	for _, h := range houses {
		ids = append(ids, h.ID)
	}
	return Scope{HouseIDs: ids}, nil
}

func (e *Evaluator) CanViewHouse(a Actor, houseID int64) (bool, error) {
	admin, err := e.IsAdmin(a)
	if err != nil || admin {
		return admin, err
	}
	u, err := e.appUser(a)
	if err != nil || u == nil {
		return false, err
	}
	return e.users.IsAssigned(u.ID, houseID)
}

// CanManageHouse grants admins everything; otherwise the stored role must be
// manager and the actor must be assigned to the house.
func (e *Evaluator) CanManageHouse(a Actor, houseID int64) (bool, error) {
	admin, err := e.IsAdmin(a)
	if err != nil || admin {
		return admin, err
	}
	u, err := e.appUser(a)
	if err != nil || u == nil {
		return false, err
	}
	if u.Role != model.RoleManager {
		return false, nil
	}
	return e.users.IsAssigned(u.ID, houseID)
}

func (e *Evaluator) CanManageMedication(a Actor, target MedicationAccess) (bool, error) {
	houseID := target.HouseID
	if target.MedicationID != 0 {
		id, found, err := e.medications.HouseOf(target.MedicationID)
		if err != nil || !found {
			return false, err
		}
		houseID = id
	}
	return e.CanManageHouse(a, houseID)
}

func (e *Evaluator) CanViewMedication(a Actor, medicationID int64) (bool, error) {
	houseID, found, err := e.medications.HouseOf(medicationID)
	if err != nil || !found {
		return false, err
	}
	return e.CanViewHouse(a, houseID)
}

// CanManageUsers is reserved to admins.
func (e *Evaluator) CanManageUsers(a Actor) (bool, error) {
	return e.IsAdmin(a)
}
