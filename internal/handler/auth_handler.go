package handler

import (
	"chamapay/internal/auth"
	"chamapay/internal/service"
	"chamapay/pkg/response"

	"github.com/gin-gonic/gin"
)

// setSessionCookie issues the httpOnly session cookie.
func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	maxAge := int(h.authService.JWT().TTL().Seconds())
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", false, true)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and starts a session.
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), &service.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	response.Success(c, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and starts a session.
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	response.Success(c, user)
}

// Logout clears the session cookie.
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	response.Success(c, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	claims := claimsFrom(c)
	user, err := h.authService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}
