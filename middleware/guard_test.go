package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/growzapp/gateway/internal/core/domain"
)

type stubSessions struct {
	state  domain.SessionState
	record domain.SessionRecord
}

func (s *stubSessions) State() domain.SessionState    { return s.state }
func (s *stubSessions) Current() domain.SessionRecord { return s.record }

func authedSessions(roles ...string) *stubSessions {
	return &stubSessions{
		state: domain.SessionAuthenticated,
		record: domain.SessionRecord{
			Token:   "tok-abc",
			Profile: domain.Profile{ID: "u-42", Login: "fatou", Roles: roles},
		},
	}
}

func serveGuarded(guard gin.HandlerFunc, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded", guard, handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	r.ServeHTTP(w, req)
	return w
}

func okHandler(c *gin.Context) {
	c.Status(http.StatusOK)
}

func TestRequireSessionWhileRestoring(t *testing.T) {
	for _, state := range []domain.SessionState{domain.SessionUninitialized, domain.SessionRestoring} {
		sessions := &stubSessions{state: state}
		w := serveGuarded(RequireSession(sessions, "/login"), okHandler)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("state %v: status = %d, want 503", state, w.Code)
		}
		if w.Header().Get("Retry-After") == "" {
			t.Errorf("state %v: missing Retry-After hint", state)
		}
	}
}

func TestRequireSessionRedirectsAnonymous(t *testing.T) {
	sessions := &stubSessions{state: domain.SessionAnonymous}
	w := serveGuarded(RequireSession(sessions, "/login"), okHandler)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect = %q, want /login", loc)
	}
}

func TestRequireSessionPassesAuthenticated(t *testing.T) {
	sessions := authedSessions("INVESTOR")

	var fromCtx domain.Profile
	var found bool
	w := serveGuarded(RequireSession(sessions, "/login"), func(c *gin.Context) {
		fromCtx, found = ProfileFromContext(c)
		c.Status(http.StatusOK)
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !found || fromCtx.ID != "u-42" {
		t.Errorf("profile in context = %+v (found=%v)", fromCtx, found)
	}
}

func TestRequireRoleRedirectsMissingRole(t *testing.T) {
	sessions := authedSessions("INVESTOR")
	w := serveGuarded(RequireRole(sessions, "ADMIN", "/login", "/"), okHandler)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	// Authorized-but-forbidden lands on the home page, not on login.
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect = %q, want /", loc)
	}
}

func TestRequireRoleRedirectsAnonymousToLogin(t *testing.T) {
	sessions := &stubSessions{state: domain.SessionAnonymous}
	w := serveGuarded(RequireRole(sessions, "ADMIN", "/login", "/"), okHandler)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect = %q, want /login", loc)
	}
}

func TestRequireRolePassesMember(t *testing.T) {
	sessions := authedSessions("INVESTOR", "ADMIN")
	w := serveGuarded(RequireRole(sessions, "ADMIN", "/login", "/"), okHandler)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequireRoleRejectsDisabledAccount(t *testing.T) {
	disabled := false
	sessions := authedSessions("ADMIN")
	sessions.record.Profile.Enabled = &disabled

	w := serveGuarded(RequireRole(sessions, "ADMIN", "/login", "/"), okHandler)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect = %q, want /", loc)
	}
}
