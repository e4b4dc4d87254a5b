package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chirpnet/chirp-auth/internal/transport/http/middleware"
	"github.com/chirpnet/chirp-auth/internal/usecase"
)

const refreshCookieName = "refresh_token"

// refreshCookiePath keeps the refresh token off every request except the auth
// endpoints that need it.
const refreshCookiePath = "/api/v1/auth"

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	users        *usecase.UserService
	isProd       bool
}

// AuthHandlerOption configures optional AuthHandler dependencies.
type AuthHandlerOption func(*AuthHandler)

// WithRegistrationService injects the registration service dependency.
func WithRegistrationService(registration *usecase.RegistrationService) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.registration = registration
	}
}

// WithUserService injects the profile service dependency.
func WithUserService(users *usecase.UserService) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.users = users
	}
}

// WithProductionMode toggles production cookie attributes (Secure, SameSite=None).
func WithProductionMode(isProd bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.isProd = isProd
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{auth: auth}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// RouteMiddlewares carries optional middleware chains applied ahead of the
// corresponding handlers.
type RouteMiddlewares struct {
	Login    []gin.HandlerFunc
	Register []gin.HandlerFunc
	Refresh  []gin.HandlerFunc
}

// RegisterRoutes binds authentication routes, applying optional rate-limit
// middleware ahead of the credential-bearing handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw RouteMiddlewares) {
	r.POST("/register", append(append([]gin.HandlerFunc{}, mw.Register...), h.register)...)
	r.POST("/login", append(append([]gin.HandlerFunc{}, mw.Login...), h.login)...)
	r.POST("/refresh", append(append([]gin.HandlerFunc{}, mw.Refresh...), h.refresh)...)
	r.POST("/logout", h.logout)

	authed := r.Group("", middleware.RequireAuth(h.auth))
	authed.GET("/me", h.me)
	authed.PUT("/me", h.updateProfile)
	authed.POST("/logout_all", h.logoutAll)
	authed.GET("/sessions", h.sessions)
}

func (h *AuthHandler) register(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Email:        req.Email,
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Password:     req.Password,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		var conflict *usecase.ConflictError
		switch {
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, NewErrorResponse(c, conflict.Error()))
		case errors.Is(err, usecase.ErrPasswordPolicyViolation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register user"))
		}
		return
	}

	c.JSON(http.StatusCreated, newUserProfile(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to login"))
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		User:        newUserProfile(result.User),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	// An absent cookie is classified with the other refresh failures: the
	// caller presented no usable grant, so the response is 403 like the
	// invalid-token paths.
	presented, err := c.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(presented) == "" {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "missing refresh token"))
		return
	}

	// Signature and expiry are checked before storage is consulted, so forged
	// cookies never reach the database.
	userID, err := h.auth.VerifyRefreshToken(presented)
	if err != nil {
		h.clearRefreshCookie(c)
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "invalid refresh token"))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), userID, presented)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			h.clearRefreshCookie(c)
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "invalid refresh token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to refresh token"))
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)

	c.JSON(http.StatusOK, RefreshResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) logout(c *gin.Context) {
	presented, err := c.Cookie(refreshCookieName)
	if err == nil && strings.TrimSpace(presented) != "" {
		if err := h.auth.Revoke(c.Request.Context(), presented); err != nil {
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to logout"))
			return
		}
	}

	h.clearRefreshCookie(c)

	// Logout acknowledges even when no live token was presented.
	c.JSON(http.StatusOK, LogoutResponse{Success: true})
}

func (h *AuthHandler) logoutAll(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.RevokeAllForUser(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to logout everywhere"))
		return
	}

	h.clearRefreshCookie(c)

	c.JSON(http.StatusOK, LogoutResponse{Success: true})
}

func (h *AuthHandler) me(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, newUserProfile(*user))
}

func (h *AuthHandler) updateProfile(c *gin.Context) {
	if h.users == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "profile service unavailable"))
		return
	}

	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, usecase.UpdateProfileInput{
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, newUserProfile(*user))
}

func (h *AuthHandler) sessions(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	tokens, err := h.auth.ListSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	sessions := make([]SessionSummary, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, newSessionSummary(token))
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := int(h.auth.RefreshTokenTTL().Seconds())
	h.writeRefreshCookie(c, token, maxAge)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	h.writeRefreshCookie(c, "", -1)
}

func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.isProd {
		// Cross-site frontends require SameSite=None, which browsers only
		// accept together with Secure.
		sameSite = http.SameSiteNoneMode
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.isProd,
		SameSite: sameSite,
	})
}
