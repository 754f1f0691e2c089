package inventory

import (
	"strings"
	"time"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

// GetMedication resolves the medication before authorizing so that a missing
// row is reported as not found rather than forbidden.
func (s *Service) GetMedication(a auth.Actor, id int64) (*model.Medication, error) {
	m, err := s.medications.GetByID(id)
	if err != nil {
		return nil, storage("get medication", err)
	}
	if m == nil {
		return nil, notFound(CodeMedicationNotFound, "medication not found")
	}
	if err := allowed(s.access.CanViewHouse(a, m.HouseID)); err != nil {
		return nil, err
	}
	return m, nil
}

// MedicationHistory returns the change log of a medication, including one
// that has since been deleted.
func (s *Service) MedicationHistory(a auth.Actor, id int64) ([]model.HistoryEntry, error) {
	entries, err := s.history.ListByMedication(id)
	if err != nil {
		return nil, storage("list history", err)
	}
	if len(entries) == 0 {
		return nil, notFound(CodeMedicationNotFound, "medication not found")
	}
	if err := allowed(s.access.CanViewHouse(a, entries[len(entries)-1].HouseID)); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateMedication authorizes against the target house before validating the
// payload, so callers without rights learn nothing about field rules or which
// houses exist.
func (s *Service) CreateMedication(a auth.Actor, in store.MedicationInput) (*model.Medication, error) {
	trimMedication(&in)
	if in.HouseID == nil || *in.HouseID == 0 {
		return nil, missing("house_id")
	}
	if err := allowed(s.access.CanManageMedication(a, auth.MedicationAccess{HouseID: *in.HouseID})); err != nil {
		return nil, err
	}
	if in.CommercialName == nil || *in.CommercialName == "" {
		return nil, missing("commercial_name")
	}
	if in.ActiveIngredient == nil || *in.ActiveIngredient == "" {
		return nil, missing("active_ingredient")
	}
	if in.ExpirationDate == nil || *in.ExpirationDate == "" {
		return nil, missing("expiration_date")
	}
	if err := validateMedication(in); err != nil {
		return nil, err
	}
	if err := s.checkHouse(*in.HouseID); err != nil {
		return nil, err
	}

	m, err := s.medications.Create(in, a.IdentityID)
	if err != nil {
		return nil, storage("create medication", err)
	}
	s.logger.Info("medication created", "medication_id", m.ID, "house_id", m.HouseID, "actor", a.IdentityID)
	return m, nil
}

// UpdateMedication applies a partial update. Moving a medication requires
// management rights on both the current and the target house.
func (s *Service) UpdateMedication(a auth.Actor, id int64, in store.MedicationInput) (*model.Medication, error) {
	houseID, found, err := s.medications.HouseOf(id)
	if err != nil {
		return nil, storage("resolve medication", err)
	}
	if !found {
		return nil, notFound(CodeMedicationNotFound, "medication not found")
	}
	if err := allowed(s.access.CanManageMedication(a, auth.MedicationAccess{MedicationID: id})); err != nil {
		return nil, err
	}

	trimMedication(&in)
	if in.CommercialName != nil && *in.CommercialName == "" {
		return nil, missing("commercial_name")
	}
	if in.ActiveIngredient != nil && *in.ActiveIngredient == "" {
		return nil, missing("active_ingredient")
	}
	if err := validateMedication(in); err != nil {
		return nil, err
	}
	if in.HouseID != nil && *in.HouseID != houseID {
		if err := s.checkHouse(*in.HouseID); err != nil {
			return nil, err
		}
		if err := allowed(s.access.CanManageHouse(a, *in.HouseID)); err != nil {
			return nil, err
		}
	}

	m, err := s.medications.Update(id, in, a.IdentityID)
	if err != nil {
		return nil, storage("update medication", err)
	}
	if m == nil {
		return nil, notFound(CodeMedicationNotFound, "medication not found")
	}
	return m, nil
}

func (s *Service) DeleteMedication(a auth.Actor, id int64) error {
	_, found, err := s.medications.HouseOf(id)
	if err != nil {
		return storage("resolve medication", err)
	}
	if !found {
		return notFound(CodeMedicationNotFound, "medication not found")
	}
	if err := allowed(s.access.CanManageMedication(a, auth.MedicationAccess{MedicationID: id})); err != nil {
		return err
	}

	deleted, err := s.medications.Delete(id, a.IdentityID)
	if err != nil {
		return storage("delete medication", err)
	}
	if !deleted {
		return notFound(CodeMedicationNotFound, "medication not found")
	}
	s.logger.Info("medication deleted", "medication_id", id, "actor", a.IdentityID)
	return nil
}

func (s *Service) checkHouse(id int64) error {
	exists, err := s.houses.Exists(id)
	if err != nil {
		return storage("check house", err)
	}
	if !exists {
		return invalid(CodeInvalidHouse, "house not found")
	}
	return nil
}

func validateMedication(in store.MedicationInput) error {
	if in.ExpirationDate != nil {
		if _, err := time.Parse(model.DateLayout, *in.ExpirationDate); err != nil {
			return invalid(CodeInvalidField, "expiration_date must be YYYY-MM-DD")
		}
	}
	for _, f := range []struct {
		name string
		v    *int
	}{
		{"package_count", in.PackageCount},
		{"total_quantity", in.TotalQuantity},
		{"min_quantity_alert", in.MinQuantityAlert},
	} {
		if f.v != nil && *f.v < 0 {
			return invalid(CodeInvalidField, f.name+" must not be negative")
		}
	}
	return nil
}

func trimMedication(in *store.MedicationInput) {
	for _, p := range []*string{in.CommercialName, in.ActiveIngredient, in.Description, in.LeafletURL, in.ExpirationDate} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}
