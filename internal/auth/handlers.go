package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// Handler handles HTTP requests for authentication
type Handler struct {
	service    *Service
	middleware *Middleware
	cookies    CookieConfig
	logger     logger.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, middleware *Middleware, cookies CookieConfig) *Handler {
	return &Handler{
		service:    service,
		middleware: middleware,
		cookies:    cookies,
		logger:     service.logger,
	}
}

// RegisterRoutes registers authentication routes
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")
	{
		// Registration
		api.POST("/register", h.RequestRegistration)
		api.POST("/verify-otp", h.VerifyRegistration)
		api.POST("/confirm-password", h.Register)

		// Session
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)

		// Forgotten password
		api.POST("/forget-password", h.RequestReset)
		api.POST("/verify", h.VerifyReset)
		api.POST("/reset-password", h.ResetPassword)

		session := api.Group("", h.middleware.RequireSession())
		session.GET("/auth-check", h.AuthCheck)
		session.POST("/change-password", h.ChangePassword)
		session.POST("/confirm-change", h.ConfirmChange)
	}
}

// Name returns the service name
func (h *Handler) Name() string {
	return "auth"
}

// RequestRegistration sends the registration OTP
func (h *Handler) RequestRegistration(c *gin.Context) {
	var req IssueOTPRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.RequestRegistration(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyRegistration checks the registration OTP
func (h *Handler) VerifyRegistration(c *gin.Context) {
	var req VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.VerifyRegistration(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Register creates the account with the chosen password
func (h *Handler) Register(c *gin.Context) {
	var req FinalizeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setSession(c, result.Tokens)
	c.JSON(http.StatusCreated, result)
}

// Login handles phone and password login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setSession(c, result.Tokens)
	c.JSON(http.StatusOK, result)
}

// Logout revokes the current session and clears its cookies
func (h *Handler) Logout(c *gin.Context) {
	_, refresh := extractTokens(c)

	if err := h.service.Logout(c.Request.Context(), refresh); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// RequestReset sends the password reset OTP
func (h *Handler) RequestReset(c *gin.Context) {
	var req IssueOTPRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.RequestReset(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyReset checks the password reset OTP
func (h *Handler) VerifyReset(c *gin.Context) {
	var req VerifyOTPRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.VerifyReset(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ResetPassword sets the new password of a forgotten-password flow
func (h *Handler) ResetPassword(c *gin.Context) {
	var req FinalizeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setSession(c, result.Tokens)
	c.JSON(http.StatusOK, result)
}

// AuthCheck reports the account behind the current session
func (h *Handler) AuthCheck(c *gin.Context) {
	session := GetSessionFromContext(c)
	if session == nil {
		respondError(c, h.logger, unauthenticated())
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), session.AccountID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountId": account.ID,
		"phone":     account.Phone,
		"role":      account.Role,
	})
}

// ChangePassword checks the current password and returns a change token
func (h *Handler) ChangePassword(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}

	session := GetSessionFromContext(c)
	if session == nil {
		respondError(c, h.logger, unauthenticated())
		return
	}
	result, err := h.service.ChangePassword(c.Request.Context(), session.AccountID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConfirmChange applies the new password
func (h *Handler) ConfirmChange(c *gin.Context) {
	var req FinalizeRequest
	if !h.bind(c, &req) {
		return
	}

	session := GetSessionFromContext(c)
	if session == nil {
		respondError(c, h.logger, unauthenticated())
		return
	}
	result, err := h.service.ConfirmChange(c.Request.Context(), session.AccountID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setSession(c, result.Tokens)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, h.logger, apperrors.InvalidRequest("Invalid request body"))
		return false
	}
	return true
}

// respondError writes err as {"error", "code"} with the status of its code
func respondError(c *gin.Context, log logger.Logger, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalWithCause(err, "internal server error")
	}

	status := appErr.GetStatus()
	if status >= http.StatusInternalServerError {
		log.With("path", c.Request.URL.Path).WithError(appErr.Cause).Error("Request failed: %s", appErr.Message)
		c.JSON(status, gin.H{"error": "Internal server error", "code": appErr.Code})
		return
	}

	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}
