package middleware

import (
	"net/http"

	"decom/internal/logger"
	"decom/internal/permission"

	"github.com/gin-gonic/gin"
)

// RequirePermission must run after JWTAuth.
func RequirePermission(p permission.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no autenticado"})
			return
		}
		if !permission.Has(u.Role, p) {
			logger.From(c.Request.Context()).Warn("permission.denied", "user", u.ID, "role", u.Role, "permission", p)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no tienes permiso para esta acción"})
			return
		}
		c.Next()
	}
}
