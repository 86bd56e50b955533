package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/growzapp/gateway/internal/api"
	"github.com/growzapp/gateway/internal/core/domain"
	logicv1 "github.com/growzapp/gateway/internal/logic/v1"
	"github.com/growzapp/gateway/middleware"
	"github.com/growzapp/gateway/pkg/logger"
)

// Handler groups the gateway's HTTP handlers for API v1.
// Dependencies are injected via the constructor, no global state.
type Handler struct {
	sessions *logicv1.SessionService
	currency *logicv1.CurrencyService
	platform *logicv1.PlatformService
}

// NewHandler creates a Handler with the given services.
func NewHandler(sessions *logicv1.SessionService, currency *logicv1.CurrencyService, platform *logicv1.PlatformService) *Handler {
	return &Handler{sessions: sessions, currency: currency, platform: platform}
}

// RegisterRoutes registers the v1 surface on the given groups: public
// (no guard), authed (RequireSession) and admin (RequireRole "ADMIN").
func (h *Handler) RegisterRoutes(public, authed, admin *gin.RouterGroup) {
	public.POST("/auth/login", h.Login)
	public.GET("/projects", h.ListProjects)
	public.GET("/projects/:id", h.GetProject)

	authed.GET("/auth/me", h.GetMe)
	authed.PUT("/auth/me", h.UpdateMe)
	authed.POST("/auth/me/avatar", h.UploadAvatar)
	authed.POST("/auth/logout", h.Logout)

	authed.GET("/currency", h.GetCurrency)
	authed.PUT("/currency", h.SetCurrency)

	authed.POST("/investments", h.Invest)
	authed.GET("/investments", h.ListInvestments)
	authed.GET("/wallet", h.GetWallet)
	authed.GET("/wallet/transactions", h.WalletHistory)
	authed.POST("/wallet/deposit", h.Deposit)
	authed.POST("/wallet/withdraw", h.Withdraw)
	authed.POST("/wallet/transfer", h.Transfer)
	authed.GET("/dividends", h.ListDividends)
	authed.GET("/contracts/:id/download", h.DownloadContract)

	admin.GET("/users", h.AdminListUsers)
	admin.POST("/projects/:id/approve", h.AdminApproveProject)
	admin.POST("/users/:id/suspend", h.AdminSuspendUser)
}

// Login authenticates against the backend and establishes the process-wide
// session on success.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	reqLogger := logger.FromContext(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		reqLogger.Error().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	token, profile, err := h.platform.Login(ctx, req.Login, req.Password)
	if err != nil {
		span.RecordError(err)
		reqLogger.Error().Err(err).Msg("Login failed")
		h.respondError(c, err)
		return
	}

	if err := h.sessions.Establish(ctx, token, profile); err != nil {
		span.RecordError(err)
		reqLogger.Error().Err(err).Msg("Session establish failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	reqLogger.Info().Str("user_id", profile.ID).Msg("Login successful")
	c.JSON(http.StatusOK, domain.AuthResponse{Token: token, User: profile})
}

// Logout clears the session; idempotent.
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	if err := h.sessions.Logout(ctx); err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Logout failed to clear persisted state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMe returns the session's profile without a backend round trip.
func (h *Handler) GetMe(c *gin.Context) {
	profile, ok := middleware.ProfileFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe pushes profile changes to the backend and mutates the session
// in place, token unchanged.
func (h *Handler) UpdateMe(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	reqLogger := logger.FromContext(ctx)

	var req domain.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.platform.UpdateProfile(ctx, req)
	if err != nil {
		span.RecordError(err)
		reqLogger.Error().Err(err).Msg("Profile update failed")
		h.respondError(c, err)
		return
	}

	if err := h.sessions.UpdateProfile(ctx, updated); err != nil {
		span.RecordError(err)
		reqLogger.Error().Err(err).Msg("Session profile update failed")
		h.respondError(c, err)
		return
	}

	reqLogger.Info().Str("user_id", updated.ID).Msg("Profile updated")
	c.JSON(http.StatusOK, updated)
}

// UploadAvatar forwards the uploaded image as multipart and refreshes the
// session profile with the backend's response.
func (h *Handler) UploadAvatar(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	updated, err := h.platform.UploadAvatar(ctx, file.Filename, data)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error().Err(err).Msg("Avatar upload failed")
		h.respondError(c, err)
		return
	}

	if err := h.sessions.UpdateProfile(ctx, updated); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetCurrency reports the current display currency and rate table.
func (h *Handler) GetCurrency(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"selected": h.currency.Selected(),
		"rates":    h.currency.Rates(),
	})
}

// SetCurrency updates the display currency selection.
func (h *Handler) SetCurrency(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.currency.SetCurrency(ctx, domain.CurrencyCode(req.Code)); err != nil {
		span.RecordError(err)
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": h.currency.Selected()})
}

// respondError maps logic sentinels and API-layer error types to statuses,
// in one place so every handler fails the same way.
func (h *Handler) respondError(c *gin.Context, err error) {
	var authErr *api.AuthorizationError
	var reqErr *api.RequestError
	var transportErr *api.TransportError

	switch {
	case errors.Is(err, logicv1.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, logicv1.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
	case errors.Is(err, logicv1.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, logicv1.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid currency code"})
	case errors.Is(err, logicv1.ErrSessionNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session restore pending"})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Backend rejected authorization"})
	case errors.As(err, &reqErr):
		c.JSON(reqErr.Status, gin.H{"error": reqErr.Message})
	case errors.As(err, &transportErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend unreachable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
