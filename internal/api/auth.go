package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mealwise/backend/internal/identity"
	"github.com/mealwise/backend/internal/middleware"
	"github.com/mealwise/backend/internal/types"
	"github.com/mealwise/backend/internal/validation"
)

// AuthHandler forwards account operations to the identity provider
type AuthHandler struct {
	provider identity.Provider
	verifier identity.SessionVerifier
	logger   *zap.Logger
}

func NewAuthHandler(provider identity.Provider, verifier identity.SessionVerifier, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	validation.Engine()
	return &AuthHandler{
		provider: provider,
		verifier: verifier,
		logger:   logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/signin", h.SignIn)
		auth.POST("/signout", h.SignOut)
		auth.GET("/session", middleware.RequireSession(h.verifier), h.Session)
	}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "sign up failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	session, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "sign in failed", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
		return
	}

	if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
		h.respondError(c, "sign out failed", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Session returns the caller's verified session
func (h *AuthHandler) Session(c *gin.Context) {
	session, exists := c.Get(middleware.ContextSession)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, session.(*types.SessionInfo))
}

func (h *AuthHandler) respondError(c *gin.Context, msg string, err error) {
	status, body := identityFailure(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	} else {
		h.logger.Info(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}

func bindCredentials(c *gin.Context) (*types.CredentialsRequest, bool) {
	var req types.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  errValidationFailed,
				"issues": validation.IssuesFrom(err),
			})
			return nil, false
		}
		c.JSON(http.StatusUnprocessableEntity, malformedBody())
		return nil, false
	}
	return &req, true
}
