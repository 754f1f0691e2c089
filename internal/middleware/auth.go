package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/farmacase/farmacase/internal/auth"
	"github.com/farmacase/farmacase/internal/model"
)

const SessionCookieName = "farmacase_session"

type SessionLookup interface {
	GetByToken(token string) (*model.Session, error)
}

type IdentityLookup interface {
	GetByID(id int64) (*model.Identity, error)
}

// SessionToken returns the session token carried by the request, preferring
// the session cookie over a bearer Authorization header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth resolves the session to its identity and stores the acting
// identity in the request context. Requests without a live session get a
// JSON 401.
func RequireAuth(sessions SessionLookup, identities IdentityLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(token)
			if err != nil {
				logger.Error("lookup session", "error", err)
			}
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			identity, err := identities.GetByID(sess.IdentityID)
			if err != nil {
				logger.Error("lookup identity", "identity_id", sess.IdentityID, "error", err)
			}
			if err != nil || identity == nil {
				unauthorized(w)
				return
			}

			actor := auth.ActorFromIdentity(identity)
			actor.SessionToken = sess.Token
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}
