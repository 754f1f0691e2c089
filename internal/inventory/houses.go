package inventory

import (
	"strings"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

func (s *Service) GetHouse(a auth.Actor, id int64) (*model.House, error) {
	h, err := s.houses.GetByID(id)
	if err != nil {
		return nil, storage("get house", err)
	}
	if h == nil {
		return nil, notFound(CodeHouseNotFound, "house not found")
	}
	if err := allowed(s.access.CanViewHouse(a, id)); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) CreateHouse(a auth.Actor, in store.HouseInput) (*model.House, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	trimHouse(&in)
	for _, f := range []struct {
		name string
		v    *string
	}{{"name", in.Name}, {"address", in.Address}, {"city", in.City}, {"region", in.Region}} {
		if f.v == nil || *f.v == "" {
			return nil, missing(f.name)
		}
	}
	if in.Status != nil && *in.Status != "" && !model.ValidHouseStatus(*in.Status) {
		return nil, invalid(CodeInvalidField, "status must be active or inactive")
	}

	h, err := s.houses.Create(in)
	if err != nil {
		return nil, storage("create house", err)
	}
	s.logger.Info("house created", "house_id", h.ID, "actor", a.IdentityID)
	return h, nil
}

func (s *Service) UpdateHouse(a auth.Actor, id int64, in store.HouseInput) (*model.House, error) {
	if err := s.requireAdmin(a); err != nil {
		return nil, err
	}
	exists, err := s.houses.Exists(id)
	if err != nil {
		return nil, storage("check house", err)
	}
	if !exists {
		return nil, notFound(CodeHouseNotFound, "house not found")
	}
	trimHouse(&in)
	for _, f := range []struct {
		name string
		v    *string
	}{{"name", in.Name}, {"address", in.Address}, {"city", in.City}, {"region", in.Region}} {
		if f.v != nil && *f.v == "" {
			return nil, missing(f.name)
		}
	}
	if in.Status != nil && !model.ValidHouseStatus(*in.Status) {
		return nil, invalid(CodeInvalidField, "status must be active or inactive")
	}

	h, err := s.houses.Update(id, in)
	if err != nil {
		return nil, storage("update house", err)
	}
	return h, nil
}

// DeleteHouse removes the house together with its medications, their history
// and its assignments.
func (s *Service) DeleteHouse(a auth.Actor, id int64) error {
	if err := s.requireAdmin(a); err != nil {
		return err
	}
	exists, err := s.houses.Exists(id)
	if err != nil {
		return storage("check house", err)
	}
	if !exists {
		return notFound(CodeHouseNotFound, "house not found")
	}
	if err := s.houses.Delete(id); err != nil {
		return storage("delete house", err)
	}
	s.logger.Info("house deleted", "house_id", id, "actor", a.IdentityID)
	return nil
}

func trimHouse(in *store.HouseInput) {
	for _, p := range []*string{in.Name, in.Address, in.City, in.Region, in.PostalCode, in.Phone, in.Email, in.Status} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}
