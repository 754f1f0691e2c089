package handler

import (
	"log/slog"
	"net/http"

	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/model"
)

type UserHandler struct {
	svc    *inventory.Service
	logger *slog.Logger
}

func NewUserHandler(svc *inventory.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type createUserRequest struct {
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Password  string     `json:"password"`
	Role      model.Role `json:"role"`
	Phone     string     `json:"phone"`
	HouseIDs  []int64    `json:"house_ids"`
}

// updateUserRequest distinguishes an absent house_ids (keep) from an empty
// array (clear all assignments).
type updateUserRequest struct {
	Email     *string     `json:"email"`
	FirstName *string     `json:"first_name"`
	LastName  *string     `json:"last_name"`
	Password  *string     `json:"password"`
	Role      *model.Role `json:"role"`
	Phone     *string     `json:"phone"`
	HouseIDs  []int64     `json:"house_ids"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	houseID, ok := optionalID(w, r, "house_id")
	if !ok {
		return
	}
	users, err := h.svc.ListUsers(a, inventory.UserQuery{
		Role:    model.Role(r.URL.Query().Get("role")),
		HouseID: houseID,
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(a, id)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.svc.CreateUser(a, inventory.NewUser{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
		Phone:     req.Phone,
		HouseIDs:  req.HouseIDs,
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateUser(a, id, inventory.UserChanges{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
		Phone:     req.Phone,
		HouseIDs:  req.HouseIDs,
	})
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(a, id); err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
