package v1

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/growzapp/gateway/internal/core/domain"
	"github.com/growzapp/gateway/middleware"
	"github.com/growzapp/gateway/pkg/logger"
)

// amountPlaceholder is rendered when no amount is available. Formatting must
// never produce "NaN" or an empty string.
const amountPlaceholder = "N/A"

// RateSource fetches the exchange-rate table from the backend.
// PlatformService implements it.
type RateSource interface {
	FetchRates(ctx context.Context) (domain.RateTable, error)
}

// RateSourceFunc adapts a function to the RateSource interface.
type RateSourceFunc func(ctx context.Context) (domain.RateTable, error)

func (f RateSourceFunc) FetchRates(ctx context.Context) (domain.RateTable, error) {
	return f(ctx)
}

// CurrencyService is the single source of truth for "how money is
// displayed": the persisted display-currency selection plus a rate table
// seeded at startup and refreshed at most once per process lifetime.
type CurrencyService struct {
	store   domain.StateStore
	source  RateSource
	base    domain.CurrencyCode
	printer *message.Printer

	mu        sync.RWMutex
	selected  domain.CurrencyCode
	rates     domain.RateTable
	refreshed bool

	flight singleflight.Group
}

// NewCurrencyService creates the service with the seed rate table and the
// base currency selected. Restore replaces the selection with the persisted
// one. locale controls number rendering ("fr", "en", ...).
func NewCurrencyService(store domain.StateStore, source RateSource, base domain.CurrencyCode, locale string) *CurrencyService {
	base = base.Normalize()
	if !base.IsWellFormed() {
		base = domain.BaseCurrency
	}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.French
	}

	return &CurrencyService{
		store:    store,
		source:   source,
		base:     base,
		printer:  message.NewPrinter(tag),
		selected: base,
		rates:    domain.SeedRates().Normalized(base),
	}
}

// Restore loads the persisted display-currency selection. Absent or
// malformed values keep the base currency; this never fails the startup.
func (s *CurrencyService) Restore(ctx context.Context) {
	code, err := s.store.LoadCurrency(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to load persisted currency, keeping base")
		return
	}
	code = code.Normalize()
	if !code.IsWellFormed() {
		return
	}
	s.mu.Lock()
	s.selected = code
	s.mu.Unlock()
}

// Selected returns the current display currency.
func (s *CurrencyService) Selected() domain.CurrencyCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Rates returns a copy of the current rate table.
func (s *CurrencyService) Rates() domain.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.RateTable, len(s.rates))
	for code, rate := range s.rates {
		out[code] = rate
	}
	return out
}

// SetCurrency updates the display currency. Selecting the current code is a
// no-op with no persistence write. A change is persisted before it takes
// effect and never triggers a rate refetch.
func (s *CurrencyService) SetCurrency(ctx context.Context, code domain.CurrencyCode) error {
	ctx, span := middleware.StartSpan(ctx, "currency.set", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("currency.code", string(code)),
	))
	defer span.End()

	code = code.Normalize()
	if !code.IsWellFormed() {
		return fmt.Errorf("set currency %q: %w", code, ErrInvalidCurrency)
	}

	s.mu.RLock()
	same := s.selected == code
	s.mu.RUnlock()
	if same {
		return nil
	}

	if err := s.store.SaveCurrency(ctx, code); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persist currency selection: %w", err)
	}

	s.mu.Lock()
	s.selected = code
	s.mu.Unlock()
	return nil
}

// RefreshRates fetches the rate table once per process lifetime. Overlapping
// calls coalesce into a single network call; the first successful fetch wins
// and replaces the table wholesale. Failures are only logged; formatting must
// keep working with stale or seed rates.
func (s *CurrencyService) RefreshRates(ctx context.Context) {
	s.mu.RLock()
	done := s.refreshed
	s.mu.RUnlock()
	if done || s.source == nil {
		return
	}

	_, _, _ = s.flight.Do("rates", func() (any, error) {
		ctx, span := middleware.StartSpan(ctx, "currency.refresh_rates", trace.WithAttributes(
			attribute.String("layer", "logic"),
		))
		defer span.End()

		// Re-check under the flight: a winner may have finished while
		// this call waited.
		s.mu.RLock()
		done := s.refreshed
		s.mu.RUnlock()
		if done {
			return nil, nil
		}

		table, err := s.source.FetchRates(ctx)
		if err != nil {
			span.RecordError(err)
			logger.FromContext(ctx).Warn().Err(err).Msg("Rate refresh failed, keeping current table")
			return nil, nil
		}

		normalized := table.Normalized(s.base)
		s.mu.Lock()
		s.rates = normalized
		s.refreshed = true
		s.mu.Unlock()

		span.SetAttributes(attribute.Int("currency.rates", len(normalized)))
		logger.FromContext(ctx).Info().Int("rates", len(normalized)).Msg("Exchange rates refreshed")
		return nil, nil
	})
}

// Convert translates amount from source into the selected display currency:
// amount / rate[source] * rate[selected], with unknown codes falling back to
// rate 1 so conversion never divides by zero.
func (s *CurrencyService) Convert(amount float64, source domain.CurrencyCode) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return amount / s.rates.Rate(source) * s.rates.Rate(s.selected)
}

// Format renders amount (expressed in source; "" means the base currency) in
// the selected display currency. The base currency renders with zero decimal
// places, everything else with two. Format never panics; a non-finite amount
// yields the placeholder.
func (s *CurrencyService) Format(amount float64, source domain.CurrencyCode) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amountPlaceholder
	}
	if source == "" {
		source = s.base
	}

	converted := s.Convert(amount, source)

	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()

	digits := 2
	if selected == s.base {
		digits = 0
	}
	return s.printer.Sprintf("%v %s",
		number.Decimal(converted, number.Scale(digits)), string(selected))
}

// FormatOptional is Format for possibly-absent amounts: nil renders the
// fixed placeholder instead of "NaN" or an empty string.
func (s *CurrencyService) FormatOptional(amount *float64, source domain.CurrencyCode) string {
	if amount == nil {
		return amountPlaceholder
	}
	return s.Format(*amount, source)
}
