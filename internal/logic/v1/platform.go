package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/growzapp/gateway/internal/api"
	"github.com/growzapp/gateway/internal/core/domain"
	"github.com/growzapp/gateway/middleware"
)

// PlatformService wraps the GrowzApp backend surface in typed calls. All
// business rules (share pricing, payout eligibility, contract numbering,
// wallet ledger) are backend-owned; these methods only encode requests and
// decode responses through the API layer.
type PlatformService struct {
	client *api.Client
}

// NewPlatformService creates a PlatformService on the given backend client.
func NewPlatformService(client *api.Client) *PlatformService {
	return &PlatformService{client: client}
}

// Login authenticates against the backend and returns the issued token and
// profile. It does not touch session state; the caller feeds the result to
// SessionService.Establish.
func (s *PlatformService) Login(ctx context.Context, login, password string) (string, domain.Profile, error) {
	ctx, span := middleware.StartSpan(ctx, "platform.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("login", login),
	))
	defer span.End()

	resp, err := s.client.Post(ctx, "/auth/login", map[string]string{
		"login":    login,
		"password": password,
	})
	if err != nil {
		var authErr *api.AuthorizationError
		if errors.As(err, &authErr) {
			span.AddEvent("authentication.failed")
			return "", domain.Profile{}, fmt.Errorf("authenticate %q: %w", login, ErrInvalidCredentials)
		}
		span.RecordError(err)
		return "", domain.Profile{}, fmt.Errorf("authenticate %q: %w", login, err)
	}

	var payload struct {
		Token string         `json:"token"`
		User  domain.Profile `json:"user"`
	}
	if err := api.DecodeResponse(resp, &payload); err != nil {
		span.RecordError(err)
		return "", domain.Profile{}, fmt.Errorf("decode login response: %w", err)
	}
	if payload.Token == "" {
		return "", domain.Profile{}, fmt.Errorf("decode login response: backend returned no token")
	}

	span.SetAttributes(attribute.String("user.id", payload.User.ID))
	return payload.Token, payload.User, nil
}

// FetchProfile returns the authenticated user's profile from the backend.
func (s *PlatformService) FetchProfile(ctx context.Context) (domain.Profile, error) {
	var profile domain.Profile
	err := s.getInto(ctx, "/users/me", &profile)
	return profile, err
}

// UpdateProfile pushes profile changes to the backend and returns the
// backend's view of the result.
func (s *PlatformService) UpdateProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	resp, err := s.client.Put(ctx, "/users/me", profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	var updated domain.Profile
	if err := api.DecodeResponse(resp, &updated); err != nil {
		return domain.Profile{}, fmt.Errorf("decode updated profile: %w", err)
	}
	return updated, nil
}

// UploadAvatar uploads a new avatar image and returns the updated profile.
func (s *PlatformService) UploadAvatar(ctx context.Context, fileName string, data []byte) (domain.Profile, error) {
	resp, err := s.client.CallMultipart(ctx, http.MethodPost, "/users/me/avatar", nil, "file", fileName, data)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("upload avatar: %w", err)
	}
	var updated domain.Profile
	if err := api.DecodeResponse(resp, &updated); err != nil {
		return domain.Profile{}, fmt.Errorf("decode avatar response: %w", err)
	}
	return updated, nil
}

// ListProjects returns the browsable projects.
func (s *PlatformService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.getInto(ctx, "/projects", &projects)
	return projects, err
}

// GetProject returns one project by id.
func (s *PlatformService) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var project domain.Project
	err := s.getInto(ctx, "/projects/"+id, &project)
	return project, err
}

// Invest purchases shares in a project.
func (s *PlatformService) Invest(ctx context.Context, projectID string, shares int) (domain.Investment, error) {
	ctx, span := middleware.StartSpan(ctx, "platform.invest", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("project.id", projectID),
		attribute.Int("shares", shares),
	))
	defer span.End()

	resp, err := s.client.Post(ctx, "/investments", map[string]any{
		"projectId": projectID,
		"shares":    shares,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	var inv domain.Investment
	if err := api.DecodeResponse(resp, &inv); err != nil {
		return domain.Investment{}, fmt.Errorf("decode investment: %w", err)
	}
	return inv, nil
}

// ListInvestments returns the caller's investments.
func (s *PlatformService) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	var investments []domain.Investment
	err := s.getInto(ctx, "/investments/me", &investments)
	return investments, err
}

// Wallet returns the caller's wallet.
func (s *PlatformService) Wallet(ctx context.Context) (domain.Wallet, error) {
	var wallet domain.Wallet
	err := s.getInto(ctx, "/wallet", &wallet)
	return wallet, err
}

// WalletHistory returns the wallet ledger as reported by the backend.
func (s *PlatformService) WalletHistory(ctx context.Context) ([]domain.WalletTransaction, error) {
	var history []domain.WalletTransaction
	err := s.getInto(ctx, "/wallet/transactions", &history)
	return history, err
}

// Deposit requests a wallet deposit.
func (s *PlatformService) Deposit(ctx context.Context, amount float64) (domain.Wallet, error) {
	return s.walletOp(ctx, "/wallet/deposit", map[string]any{"amount": amount})
}

// Withdraw requests a wallet withdrawal.
func (s *PlatformService) Withdraw(ctx context.Context, amount float64) (domain.Wallet, error) {
	return s.walletOp(ctx, "/wallet/withdraw", map[string]any{"amount": amount})
}

// Transfer moves funds to another user identified by login.
func (s *PlatformService) Transfer(ctx context.Context, toLogin string, amount float64) (domain.Wallet, error) {
	return s.walletOp(ctx, "/wallet/transfer", map[string]any{"to": toLogin, "amount": amount})
}

func (s *PlatformService) walletOp(ctx context.Context, path string, body map[string]any) (domain.Wallet, error) {
	resp, err := s.client.Post(ctx, path, body)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("wallet operation %s: %w", path, err)
	}
	var wallet domain.Wallet
	if err := api.DecodeResponse(resp, &wallet); err != nil {
		return domain.Wallet{}, fmt.Errorf("decode wallet: %w", err)
	}
	return wallet, nil
}

// ListDividends returns the caller's dividend payouts.
func (s *PlatformService) ListDividends(ctx context.Context) ([]domain.Dividend, error) {
	var dividends []domain.Dividend
	err := s.getInto(ctx, "/dividends/me", &dividends)
	return dividends, err
}

// DownloadContract streams a generated contract document. The bytes pass
// through untouched together with the backend's content type.
func (s *PlatformService) DownloadContract(ctx context.Context, investmentID string) ([]byte, string, error) {
	resp, err := s.client.Get(ctx, "/contracts/"+investmentID+"/download")
	if err != nil {
		return nil, "", fmt.Errorf("download contract: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return resp.Body, contentType, nil
}

// FetchRates implements RateSource: it retrieves the currency table from the
// backend, tolerating both the list and map payload shapes.
func (s *PlatformService) FetchRates(ctx context.Context) (domain.RateTable, error) {
	resp, err := s.client.Get(ctx, "/currencies")
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}

	var entries []struct {
		Code string  `json:"code"`
		Rate float64 `json:"rate"`
	}
	if err := api.DecodeResponse(resp, &entries); err == nil {
		table := make(domain.RateTable, len(entries))
		for _, e := range entries {
			table[domain.CurrencyCode(e.Code)] = e.Rate
		}
		return table, nil
	}

	var table domain.RateTable
	if err := api.DecodeResponse(resp, &table); err != nil {
		return nil, fmt.Errorf("decode rate table: %w", err)
	}
	return table, nil
}

// Admin moderation pass-throughs.

// ApproveProject flips a pending project to approved.
func (s *PlatformService) ApproveProject(ctx context.Context, id string) error {
	_, err := s.client.Post(ctx, "/admin/projects/"+id+"/approve", nil)
	if err != nil {
		return fmt.Errorf("approve project %s: %w", id, err)
	}
	return nil
}

// SuspendUser disables a user account.
func (s *PlatformService) SuspendUser(ctx context.Context, id string) error {
	_, err := s.client.Post(ctx, "/admin/users/"+id+"/suspend", nil)
	if err != nil {
		return fmt.Errorf("suspend user %s: %w", id, err)
	}
	return nil
}

// ListUsers returns all platform users for moderation.
func (s *PlatformService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	var users []domain.Profile
	err := s.getInto(ctx, "/admin/users", &users)
	return users, err
}

func (s *PlatformService) getInto(ctx context.Context, path string, out any) error {
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if err := api.DecodeResponse(resp, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
