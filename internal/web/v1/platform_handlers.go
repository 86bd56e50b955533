package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/growzapp/gateway/middleware"
	"github.com/growzapp/gateway/pkg/logger"
)

// Platform pass-through handlers. Money values are forwarded as the backend
// reports them; a formatted display string in the selected currency is
// attached where a single amount is returned.

// ListProjects returns the browsable projects.
func (h *Handler) ListProjects(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	projects, err := h.platform.ListProjects(ctx)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Project listing failed")
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject returns one project with its share price formatted in the
// selected display currency.
func (h *Handler) GetProject(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	project, err := h.platform.GetProject(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":           project,
		"sharePriceDisplay": h.currency.Format(project.SharePrice, ""),
	})
}

// Invest purchases shares in a project on behalf of the session user.
func (h *Handler) Invest(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req struct {
		ProjectID string `json:"projectId" binding:"required"`
		Shares    int    `json:"shares" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	investment, err := h.platform.Invest(ctx, req.ProjectID, req.Shares)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Str("project_id", req.ProjectID).Msg("Investment failed")
		h.respondError(c, err)
		return
	}

	logger.FromContext(ctx).Info().
		Str("investment_id", investment.ID).
		Str("project_id", investment.ProjectID).
		Msg("Investment created")
	c.JSON(http.StatusCreated, gin.H{
		"investment":    investment,
		"amountDisplay": h.currency.Format(investment.Amount, ""),
	})
}

// ListInvestments returns the session user's investments.
func (h *Handler) ListInvestments(c *gin.Context) {
	ctx := c.Request.Context()
	investments, err := h.platform.ListInvestments(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, investments)
}

// GetWallet returns the wallet with the balance formatted in the selected
// display currency.
func (h *Handler) GetWallet(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	wallet, err := h.platform.Wallet(ctx)
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"wallet":         wallet,
		"balanceDisplay": h.currency.Format(wallet.Balance, ""),
	})
}

// WalletHistory returns the wallet ledger.
func (h *Handler) WalletHistory(c *gin.Context) {
	history, err := h.platform.WalletHistory(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type amountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// Deposit requests a wallet deposit.
func (h *Handler) Deposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wallet, err := h.platform.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// Withdraw requests a wallet withdrawal.
func (h *Handler) Withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wallet, err := h.platform.Withdraw(c.Request.Context(), req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// Transfer moves funds to another user.
func (h *Handler) Transfer(c *gin.Context) {
	var req struct {
		To     string  `json:"to" binding:"required"`
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wallet, err := h.platform.Transfer(c.Request.Context(), req.To, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// ListDividends returns the session user's dividend payouts.
func (h *Handler) ListDividends(c *gin.Context) {
	dividends, err := h.platform.ListDividends(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dividends)
}

// DownloadContract streams the generated contract document through.
func (h *Handler) DownloadContract(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	id := c.Param("id")
	data, contentType, err := h.platform.DownloadContract(ctx, id)
	if err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}

	filename := "contract-" + strings.ReplaceAll(id, "/", "_") + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// AdminListUsers returns all users for moderation.
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.platform.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AdminApproveProject approves a pending project.
func (h *Handler) AdminApproveProject(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.platform.ApproveProject(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	logger.FromContext(ctx).Info().Str("project_id", c.Param("id")).Msg("Project approved")
	c.Status(http.StatusNoContent)
}

// AdminSuspendUser disables a user account.
func (h *Handler) AdminSuspendUser(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.platform.SuspendUser(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	logger.FromContext(ctx).Warn().Str("user_id", c.Param("id")).Msg("User suspended")
	c.Status(http.StatusNoContent)
}
