package domain

import (
	"context"
	"fmt"
)

// StateStore is the durable client-state contract: one logical session
// record and one currency-code scalar. Implementations live in
// internal/core/repository.
//
// The session record is stored as a single blob so token and profile can
// never desync across independent keys.
type StateStore interface {
	// SaveSession persists the session record, replacing any previous one.
	SaveSession(ctx context.Context, rec SessionRecord) error

	// LoadSession returns the persisted session record.
	// Returns (nil, nil) when no record is stored. A structurally invalid
	// record yields a *CorruptStateError.
	LoadSession(ctx context.Context) (*SessionRecord, error)

	// ClearSession removes the persisted session record.
	ClearSession(ctx context.Context) error

	// SaveCurrency persists the selected display currency.
	SaveCurrency(ctx context.Context, code CurrencyCode) error

	// LoadCurrency returns the persisted display currency, or "" when
	// none was ever selected.
	LoadCurrency(ctx context.Context) (CurrencyCode, error)
}

// CorruptStateError reports a persisted record that could not be decoded.
// Restore treats it as an absent record; it is never propagated to callers.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt persisted state %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }
