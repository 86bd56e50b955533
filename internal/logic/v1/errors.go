// Package v1 provides the gateway's client-state logic for API version 1:
// the process-wide session lifecycle, the display-currency state, and the
// typed wrappers over the GrowzApp backend surface.
//
// Error Handling:
// This package defines sentinel errors for the state-machine and upstream
// failures the web layer maps to HTTP statuses. They should be wrapped with
// context using fmt.Errorf("%w") when returned.
//
// Example Usage:
//
//	if s.State() != domain.SessionAuthenticated {
//	    return fmt.Errorf("update profile: %w", ErrNotAuthenticated)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
//	case errors.Is(err, logicv1.ErrNotAuthenticated):
//	    c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
//	default:
//	    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
//	}
package v1

import "errors"

// Sentinel errors for session and currency operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidCredentials indicates the backend rejected the login.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated indicates an operation that requires an
	// authenticated session was attempted without one.
	// HTTP Status: 401 Unauthorized
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionNotReady indicates the session restore has not completed
	// yet; guard decisions must wait.
	// HTTP Status: 503 Service Unavailable
	ErrSessionNotReady = errors.New("session restore pending")

	// ErrForbidden indicates the authenticated user lacks the required
	// role for the operation.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("insufficient role")

	// ErrInvalidCurrency indicates a display-currency code that is not a
	// well-formed 3-letter code.
	// HTTP Status: 400 Bad Request
	ErrInvalidCurrency = errors.New("invalid currency code")
)
