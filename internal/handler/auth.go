package handler

import (
	"net/http"

	"decom/internal/logger"
	"decom/internal/middleware"
	"decom/internal/model"
	"decom/internal/permission"
	"decom/internal/service"

	"github.com/gin-gonic/gin"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   *service.AuthService
	tokens *middleware.Tokens
	cookie CookieConfig
}

func NewAuthHandler(auth *service.AuthService, tokens *middleware.Tokens, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, cookie: cookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login.failed", "email", req.Email, "err", err)
		respondErr(c, err)
		return
	}
	logger.Info("login.ok", "uid", u.ID, "role", u.Role)

	token, err := h.tokens.Issue(u)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, model.LoginResponse{Token: token, User: profile(u)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the caller with the permissions the UI should enable.
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no autenticado"})
		return
	}
	c.JSON(http.StatusOK, profile(u))
}

func profile(u *model.User) model.Profile {
	perms := permission.For(u.Role)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return model.Profile{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		RoleLevel:   u.RoleLevel,
		Permissions: names,
	}
}
