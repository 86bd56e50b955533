package domain

// SessionRecord is the single persisted unit of authentication state.
// Token and Profile live and die together: a record missing either is
// treated as logged out, never as a half-session.
type SessionRecord struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// Valid reports whether the record represents an authenticated session.
func (r SessionRecord) Valid() bool {
	return r.Token != "" && r.Profile.ID != ""
}

// SessionState is the lifecycle state of the process-wide session.
//
// Transitions: Uninitialized -> Restoring -> {Authenticated, Anonymous};
// Authenticated -> Anonymous via logout or forced drop; Anonymous ->
// Authenticated via login. No other transitions exist.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionRestoring
	SessionAnonymous
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionRestoring:
		return "restoring"
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Ready reports whether the restore phase has completed and guard decisions
// may be made.
func (s SessionState) Ready() bool {
	return s == SessionAnonymous || s == SessionAuthenticated
}
