package inventory

import (
	"strings"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

type HouseQuery struct {
	Region string
	Status string
}

type MedicationQuery struct {
	HouseID          *int64
	Search           string
	ActiveIngredient string
	ExpiringSoon     bool
	LowQuantity      bool
}

type UserQuery struct {
	Role    model.Role
	HouseID *int64
}

// ListHouses returns the houses visible to the actor that match q, ordered
// by name. An actor with no visible house gets an empty list.
func (s *Service) ListHouses(a auth.Actor, q HouseQuery) ([]model.House, error) {
	scope, err := s.access.ScopeOf(a)
	if err != nil {
		return nil, storage("resolve scope", err)
	}
	f := store.HouseFilter{
		Region: strings.TrimSpace(q.Region),
		Status: strings.TrimSpace(q.Status),
	}
	if !scope.All {
		f.IDs = scope.HouseIDs
	}
	houses, err := s.houses.List(f)
	if err != nil {
		return nil, storage("list houses", err)
	}
	return nonNil(houses), nil
}

// ListMedications returns medications matching q inside the actor's visible
// houses, ordered by commercial name. A house filter outside the visible set
// yields an empty list.
func (s *Service) ListMedications(a auth.Actor, q MedicationQuery) ([]model.Medication, error) {
	scope, err := s.access.ScopeOf(a)
	if err != nil {
		return nil, storage("resolve scope", err)
	}
	f := store.MedicationFilter{
		HouseID:          q.HouseID,
		Search:           strings.TrimSpace(q.Search),
		ActiveIngredient: strings.TrimSpace(q.ActiveIngredient),
		LowQuantity:      q.LowQuantity,
	}
	if !scope.All {
		f.HouseIDs = scope.HouseIDs
	}
	if q.ExpiringSoon {
		today := s.today()
		f.ExpiringFrom = today.Format(model.DateLayout)
		f.ExpiringTo = today.AddDate(0, 0, s.cfg.LookaheadDays).Format(model.DateLayout)
	}
	meds, err := s.medications.List(f)
	if err != nil {
		return nil, storage("list medications", err)
	}
	return nonNil(meds), nil
}

// ListUsers is reserved to admins. Each user carries its assigned houses.
func (s *Service) ListUsers(a auth.Actor, q UserQuery) ([]model.User, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	if q.Role != "" && !q.Role.Valid() {
		return nil, invalid(CodeInvalidField, "role must be admin, manager or viewer")
	}
	users, err := s.users.List(store.UserFilter{Role: q.Role, HouseID: q.HouseID})
	if err != nil {
		return nil, storage("list users", err)
	}
	return nonNil(users), nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
