package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/notify"
)

type NotificationHandler struct {
	engine *notify.Engine
	svc    *inventory.Service
	access *auth.Evaluator
	logger *slog.Logger
}

func NewNotificationHandler(engine *notify.Engine, svc *inventory.Service, access *auth.Evaluator, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{engine: engine, svc: svc, access: access, logger: logger}
}

// appUser resolves the application user behind the actor. ok is false when
// a response has already been written.
func (h *NotificationHandler) appUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	a, ok := actor(w, r)
	if !ok {
		return nil, false
	}
	u, err := h.svc.UserForActor(a)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return nil, false
	}
	return u, true
}

func (h *NotificationHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	a, ok := actor(w, r)
	if !ok {
		return false
	}
	admin, err := h.access.IsAdmin(a)
	if err != nil {
		h.logger.Error("check admin", "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return false
	}
	if !admin {
		writeError(w, http.StatusForbidden, inventory.CodeForbidden, "permission denied")
		return false
	}
	return true
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := h.appUser(w, r)
	if !ok {
		return
	}
	if u == nil {
		writeJSON(w, http.StatusOK, []model.UserNotification{})
		return
	}
	list, err := h.engine.UserNotifications(u.ID, queryInt(r, "limit", notify.DefaultListLimit))
	if err != nil {
		h.logger.Error("list notifications", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	if list == nil {
		list = []model.UserNotification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := h.appUser(w, r)
	if !ok {
		return
	}
	count := 0
	if u != nil {
		n, err := h.engine.CountUnread(u.ID)
		if err != nil {
			h.logger.Error("count unread", "user_id", u.ID, "error", err)
			writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
			return
		}
		count = n
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, ok := h.appUser(w, r)
	if !ok {
		return
	}
	if u == nil {
		writeError(w, http.StatusForbidden, inventory.CodeForbidden, "permission denied")
		return
	}
	marked, err := h.engine.MarkAsRead(id, u.ID)
	if err != nil {
		h.logger.Error("mark notification read", "notification_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	if !marked {
		writeError(w, http.StatusForbidden, inventory.CodeForbidden, "not a recipient of this notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": h.engine.SendTest(r.Context(), a)})
}

// Run triggers the weekly run immediately.
func (h *NotificationHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": h.engine.RunWeekly(context.WithoutCancel(r.Context()))})
}

func (h *NotificationHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Events().Recent(queryInt(r, "limit", notify.DefaultLogsLimit)))
}
