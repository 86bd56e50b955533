package v1

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/growzapp/gateway/internal/core/domain"
	"github.com/growzapp/gateway/internal/core/repository"
)

// countingStore counts currency writes to observe the no-op path.
type countingStore struct {
	repository.MemoryStateStore
	currencyWrites atomic.Int32
}

func (s *countingStore) SaveCurrency(ctx context.Context, code domain.CurrencyCode) error {
	s.currencyWrites.Add(1)
	return s.MemoryStateStore.SaveCurrency(ctx, code)
}

func newTestCurrency(store domain.StateStore, source RateSource) *CurrencyService {
	return NewCurrencyService(store, source, domain.BaseCurrency, "fr")
}

func TestConvert(t *testing.T) {
	s := newTestCurrency(repository.NewMemoryStateStore(), nil)

	if err := s.SetCurrency(context.Background(), "EUR"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}

	// 1,000,000 XOF at 0.0015 EUR per XOF.
	got := s.Convert(1_000_000, "XOF")
	if math.Abs(got-1500) > 1e-9 {
		t.Errorf("Convert(1000000, XOF) = %v, want 1500", got)
	}
}

func TestConvertUnknownCodeFallsBack(t *testing.T) {
	s := newTestCurrency(repository.NewMemoryStateStore(), nil)

	// Unknown codes behave as rate 1: the amount passes through unscaled
	// rather than dividing by zero or panicking.
	if got := s.Convert(250, "ZZZ"); got != 250 {
		t.Errorf("Convert(250, ZZZ) = %v, want 250", got)
	}
}

func TestSetCurrency(t *testing.T) {
	store := &countingStore{}
	s := newTestCurrency(store, nil)
	ctx := context.Background()

	if got := s.Selected(); got != domain.BaseCurrency {
		t.Fatalf("initial selection = %v", got)
	}

	if err := s.SetCurrency(ctx, "eur"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}
	if got := s.Selected(); got != "EUR" {
		t.Errorf("selection = %v, want normalized EUR", got)
	}
	if n := store.currencyWrites.Load(); n != 1 {
		t.Errorf("writes = %d, want 1", n)
	}

	// Re-selecting the current code must not write again.
	if err := s.SetCurrency(ctx, "EUR"); err != nil {
		t.Fatalf("SetCurrency same code: %v", err)
	}
	if n := store.currencyWrites.Load(); n != 1 {
		t.Errorf("writes after no-op = %d, want 1", n)
	}
}

func TestSetCurrencyRejectsMalformedCode(t *testing.T) {
	s := newTestCurrency(repository.NewMemoryStateStore(), nil)

	for _, code := range []domain.CurrencyCode{"", "E", "EURO", "12$"} {
		if err := s.SetCurrency(context.Background(), code); !errors.Is(err, ErrInvalidCurrency) {
			t.Errorf("SetCurrency(%q) err = %v, want ErrInvalidCurrency", code, err)
		}
	}
}

func TestCurrencyRestore(t *testing.T) {
	store := repository.NewMemoryStateStore()
	ctx := context.Background()

	first := newTestCurrency(store, nil)
	if err := first.SetCurrency(ctx, "USD"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}

	second := newTestCurrency(store, nil)
	second.Restore(ctx)
	if got := second.Selected(); got != "USD" {
		t.Errorf("restored selection = %v, want USD", got)
	}
}

func TestRefreshRatesCoalesces(t *testing.T) {
	var calls atomic.Int32
	source := RateSourceFunc(func(context.Context) (domain.RateTable, error) {
		calls.Add(1)
		return domain.RateTable{"XOF": 1, "EUR": 0.002}, nil
	})
	s := newTestCurrency(repository.NewMemoryStateStore(), source)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RefreshRates(context.Background())
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("rate source called %d times, want 1", n)
	}
	if got := s.Rates().Rate("EUR"); got != 0.002 {
		t.Errorf("EUR rate = %v, want refreshed 0.002", got)
	}

	// Later calls are no-ops once a refresh succeeded.
	s.RefreshRates(context.Background())
	if n := calls.Load(); n != 1 {
		t.Errorf("rate source re-called after success: %d", n)
	}
}

func TestRefreshRatesFailureKeepsSeedTable(t *testing.T) {
	source := RateSourceFunc(func(context.Context) (domain.RateTable, error) {
		return nil, errors.New("backend down")
	})
	s := newTestCurrency(repository.NewMemoryStateStore(), source)

	// Must not panic or surface the failure.
	s.RefreshRates(context.Background())

	if got := s.Rates().Rate("EUR"); got != 0.0015 {
		t.Errorf("EUR rate after failed refresh = %v, want seed 0.0015", got)
	}
}

func TestFormatNeverBreaks(t *testing.T) {
	s := newTestCurrency(repository.NewMemoryStateStore(), nil)

	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := s.Format(amount, ""); got != "N/A" {
			t.Errorf("Format(%v) = %q, want placeholder", amount, got)
		}
	}

	if got := s.Format(1234, ""); !strings.HasSuffix(got, " XOF") {
		t.Errorf("Format(1234) = %q, want XOF suffix", got)
	}
	if got := s.Format(1234, ""); got == "" || strings.Contains(got, "NaN") {
		t.Errorf("Format(1234) = %q", got)
	}
}

func TestFormatOptional(t *testing.T) {
	s := newTestCurrency(repository.NewMemoryStateStore(), nil)

	if got := s.FormatOptional(nil, ""); got != "N/A" {
		t.Errorf("FormatOptional(nil) = %q, want placeholder", got)
	}

	amount := 500.0
	if got := s.FormatOptional(&amount, ""); got == "N/A" || got == "" {
		t.Errorf("FormatOptional(&500) = %q", got)
	}
}
