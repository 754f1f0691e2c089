package handler

import (
	"log/slog"
	"net/http"

	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/store"
)

type MedicationHandler struct {
	svc    *inventory.Service
	logger *slog.Logger
}

func NewMedicationHandler(svc *inventory.Service, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{svc: svc, logger: logger}
}

type medicationRequest struct {
	HouseID          *int64  `json:"house_id"`
	CommercialName   *string `json:"commercial_name"`
	ActiveIngredient *string `json:"active_ingredient"`
	Description      *string `json:"description"`
	LeafletURL       *string `json:"leaflet_url"`
	PackageCount     *int    `json:"package_count"`
	TotalQuantity    *int    `json:"total_quantity"`
	ExpirationDate   *string `json:"expiration_date"`
	MinQuantityAlert *int    `json:"min_quantity_alert"`
}

func (req medicationRequest) input() store.MedicationInput {
	return store.MedicationInput{
		HouseID:          req.HouseID,
		CommercialName:   req.CommercialName,
		ActiveIngredient: req.ActiveIngredient,
		Description:      req.Description,
		LeafletURL:       req.LeafletURL,
		PackageCount:     req.PackageCount,
		TotalQuantity:    req.TotalQuantity,
		ExpirationDate:   req.ExpirationDate,
		MinQuantityAlert: req.MinQuantityAlert,
	}
}

// List accepts house_id, search, active_ingredient, expiring_soon and
// low_quantity query parameters.
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	houseID, ok := optionalID(w, r, "house_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	meds, err := h.svc.ListMedications(a, inventory.MedicationQuery{
		HouseID:          houseID,
		Search:           q.Get("search"),
		ActiveIngredient: q.Get("active_ingredient"),
		ExpiringSoon:     queryBool(r, "expiring_soon"),
		LowQuantity:      queryBool(r, "low_quantity"),
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.GetMedication(a, id)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MedicationHandler) History(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.MedicationHistory(a, id)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req medicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.CreateMedication(a, req.input())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req medicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.UpdateMedication(a, id, req.input())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteMedication(a, id); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
