package handler

import (
	"log/slog"
	"net/http"

	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/store"
)

type HouseHandler struct {
	svc    *inventory.Service
	logger *slog.Logger
}

func NewHouseHandler(svc *inventory.Service, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{svc: svc, logger: logger}
}

type houseRequest struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	Region     *string `json:"region"`
	PostalCode *string `json:"postal_code"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	Status     *string `json:"status"`
}

func (req houseRequest) input() store.HouseInput {
	return store.HouseInput{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		Email:      req.Email,
		Status:     req.Status,
	}
}

func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	houses, err := h.svc.ListHouses(a, inventory.HouseQuery{
		Region: r.URL.Query().Get("region"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, houses)
}

func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	house, err := h.svc.GetHouse(a, id)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req houseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	house, err := h.svc.CreateHouse(a, req.input())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, house)
}

func (h *HouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req houseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	house, err := h.svc.UpdateHouse(a, id, req.input())
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, house)
}

func (h *HouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteHouse(a, id); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
