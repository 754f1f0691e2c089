package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/inventory"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeFailure maps a service error onto its HTTP status. Storage causes are
// logged and never sent to the client.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var e *inventory.Error
	if !errors.As(err, &e) {
		logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}

	switch e.Kind {
	case inventory.KindNotFound:
		writeError(w, http.StatusNotFound, e.Code, e.Message)
	case inventory.KindValidation:
		writeError(w, http.StatusBadRequest, e.Code, e.Message)
	case inventory.KindPermission:
		writeError(w, http.StatusForbidden, e.Code, e.Message)
	default:
		logger.Error(e.Message, "path", r.URL.Path, "error", e.Err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, inventory.CodeInvalidField, "invalid JSON")
		return false
	}
	return true
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// pathID parses the {id} URL parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, inventory.CodeInvalidField, "invalid id")
		return 0, false
	}
	return id, true
}

// optionalID parses an optional numeric query parameter.
func optionalID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, inventory.CodeInvalidField, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// actor returns the authenticated actor. Routes using it sit behind
// RequireAuth, so a missing actor is answered with 401.
func actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	a, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
	return a, ok
}
