package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/inventory"
	"github.com/farmacase/farmacase/internal/middleware"
	"github.com/farmacase/farmacase/internal/model"
	"github.com/farmacase/farmacase/internal/store"
)

type SessionHandler struct {
	identities   *store.IdentityStore
	sessions     *store.SessionStore
	svc          *inventory.Service
	access       *auth.Evaluator
	throttle     *middleware.LoginThrottle
	secureCookie bool
	logger       *slog.Logger
}

func NewSessionHandler(is *store.IdentityStore, ss *store.SessionStore, svc *inventory.Service, access *auth.Evaluator, throttle *middleware.LoginThrottle, secureCookie bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		identities:   is,
		sessions:     ss,
		svc:          svc,
		access:       access,
		throttle:     throttle,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  *model.Identity `json:"identity"`
}

type meResponse struct {
	Identity     *model.Identity    `json:"identity"`
	Capabilities model.Capabilities `json:"capabilities"`
	Role         model.Role         `json:"role"`
	User         *model.User        `json:"user"`
	Houses       []model.House      `json:"houses"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, inventory.CodeMissingRequired, "email and password are required")
		return
	}
	key := middleware.LoginKey(r, req.Email)
	if h.throttle.Blocked(key) {
		h.logger.Warn("login throttled", "remote", r.RemoteAddr)
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many failed login attempts")
		return
	}

	identity, err := h.identities.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	if identity == nil {
		h.throttle.Fail(key)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	h.throttle.Succeed(key)

	sess, err := h.sessions.Create(identity.ID)
	if err != nil {
		h.logger.Error("create session", "identity_id", identity.ID, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("login", "identity_id", identity.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Identity: identity})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.sessions.DeleteByToken(a.SessionToken); err != nil {
		h.logger.Error("delete session", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me describes the acting identity: its capabilities, resolved role, app
// user record and visible houses.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	identity, err := h.identities.GetByID(a.IdentityID)
	if err != nil {
		h.logger.Error("get identity", "identity_id", a.IdentityID, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	user, err := h.svc.UserForActor(a)
	if err != nil {
		writeFailure(w, r, h.logger, err)
		return
	}
	role, err := h.access.RoleOf(a)
	if err != nil {
		h.logger.Error("resolve role", "identity_id", a.IdentityID, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	houses, err := h.access.HousesVisibleTo(a)
	if err != nil {
		h.logger.Error("visible houses", "identity_id", a.IdentityID, "error", err)
		writeError(w, http.StatusInternalServerError, inventory.CodeStorage, "internal error")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, http.StatusOK, meResponse{
		Identity:     identity,
		Capabilities: a.Capabilities,
		Role:         role,
		User:         user,
		Houses:       houses,
	})
}
