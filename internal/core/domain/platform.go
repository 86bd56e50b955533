package domain

import "time"

// Backend-owned display models. The gateway never computes these values, it
// forwards what the backend returns.

// Project is a crowdfunding project open for investment.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	SharePrice  float64   `json:"sharePrice"`
	Currency    string    `json:"currency,omitempty"`
	SharesTotal int       `json:"sharesTotal"`
	SharesSold  int       `json:"sharesSold"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ClosesAt    time.Time `json:"closesAt,omitzero"`
}

// Investment is a user's purchase of shares in a project.
type Investment struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Shares     int       `json:"shares"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	ContractID string    `json:"contractId,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// Wallet is the user's balance, expressed in the base currency.
type Wallet struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

// WalletTransaction is one ledger entry as reported by the backend.
type WalletTransaction struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // DEPOSIT, WITHDRAWAL, TRANSFER, DIVIDEND
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Dividend is a payout received for an investment.
type Dividend struct {
	ID           string    `json:"id"`
	InvestmentID string    `json:"investmentId"`
	Amount       float64   `json:"amount"`
	PaidAt       time.Time `json:"paidAt,omitzero"`
}

// LoginRequest is the credentials payload accepted by the gateway.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned to the caller after a successful login.
type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
