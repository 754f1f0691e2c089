package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoginKey identifies a sign-in attempt by client address and submitted
// email, so one client guessing at many accounts, or many clients guessing at
// one, are counted separately. Mount chi's RealIP ahead of the handler so
// RemoteAddr carries the forwarded client address.
func LoginKey(r *http.Request, email string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + "|" + strings.ToLower(strings.TrimSpace(email))
}

type failures struct {
	count   int
	resetAt time.Time
}

// LoginThrottle counts failed sign-ins per key. A key that reaches the limit
// stays blocked until the window opened by its first failure runs out.
type LoginThrottle struct {
	mu     sync.Mutex
	keys   map[string]*failures
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLoginThrottle(limit int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		keys:   make(map[string]*failures),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// SetClock overrides the time source.
func (t *LoginThrottle) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Blocked reports whether key has used up its failed attempts.
func (t *LoginThrottle) Blocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.keys[key]
	if !ok {
		return false
	}
	if !t.now().Before(f.resetAt) {
		delete(t.keys, key)
		return false
	}
	return f.count >= t.limit
}

func (t *LoginThrottle) Fail(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	f, ok := t.keys[key]
	if !ok || !now.Before(f.resetAt) {
		t.keys[key] = &failures{count: 1, resetAt: now.Add(t.window)}
		return
	}
	f.count++
}

// Succeed forgets earlier failures for key.
func (t *LoginThrottle) Succeed(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.keys, key)
}

// Cleanup drops keys whose window has passed and returns how many went.
func (t *LoginThrottle) Cleanup() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	n := 0
	for key, f := range t.keys {
		if !now.Before(f.resetAt) {
			delete(t.keys, key)
			n++
		}
	}
	return n
}
