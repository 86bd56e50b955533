package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/growzapp/gateway/internal/core/domain"
)

// ProfileKey is the gin context key under which guards store the
// authenticated profile.
const ProfileKey = "session_profile"

// SessionSource exposes the session state the guards decide on. Implemented
// by the session service; middleware depends on this interface only.
type SessionSource interface {
	State() domain.SessionState
	Current() domain.SessionRecord
}

// RequireSession gates a route subtree on an authenticated session.
// While the session is still restoring nothing is served but a retry hint;
// an anonymous caller is redirected to the login entry point; an
// authenticated one proceeds with the profile stored in the context.
func RequireSession(sessions SessionSource, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := sessions.State()
		if !state.Ready() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": state.String()})
			return
		}
		if state != domain.SessionAuthenticated {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(ProfileKey, sessions.Current().Profile)
		c.Next()
	}
}

// RequireRole is RequireSession plus a role-membership check. An
// authenticated caller lacking the role is sent to the safe default page,
// not to login: unauthenticated and unauthorized are different outcomes
// with different destinations.
func RequireRole(sessions SessionSource, role, loginPath, homePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := sessions.State()
		if !state.Ready() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": state.String()})
			return
		}
		if state != domain.SessionAuthenticated {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		profile := sessions.Current().Profile
		if !profile.HasRole(role) || !profile.IsEnabled() {
			c.Redirect(http.StatusFound, homePath)
			c.Abort()
			return
		}

		c.Set(ProfileKey, profile)
		c.Next()
	}
}

// ProfileFromContext returns the profile a guard stored for this request.
func ProfileFromContext(c *gin.Context) (domain.Profile, bool) {
	v, ok := c.Get(ProfileKey)
	if !ok {
		return domain.Profile{}, false
	}
	profile, ok := v.(domain.Profile)
	return profile, ok
}
