package handler

import (
	"errors"
	"net/http"
	"strconv"

	"decom/internal/logger"
	"decom/internal/middleware"
	"decom/internal/service"
	"decom/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// respondErr maps service errors onto HTTP status codes. Unknown errors are
// logged and reported as a bare 500.
func respondErr(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		fieldError(c, fe.Field, fe.Message)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no encontrado"})
	case errors.Is(err, service.ErrCommitteeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "el comité no existe"})
	case errors.Is(err, service.ErrCommitteeInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "el comité tiene solicitudes asociadas y no puede eliminarse"})
	case errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "ya existe un registro con ese nombre o correo"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "credenciales inválidas"})
	case errors.Is(err, service.ErrInactiveUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "usuario inactivo"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "no tienes permiso para esta acción"})
	case errors.Is(err, service.ErrSelfDeactivate):
		c.JSON(http.StatusForbidden, gin.H{"error": "no puedes desactivar tu propia cuenta"})
	default:
		logger.From(c.Request.Context()).Error("http.internal_error", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
	}
}

// badRequest reports a binding failure, with per-field messages when the
// failure came from validation.
func badRequest(c *gin.Context, err error) {
	if v, ok := binding.Validator.(*validation.Validator); ok {
		if fields := v.Translate(err); len(fields) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "datos inválidos", "fields": fields})
			return
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "solicitud mal formada"})
}

func fieldError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "datos inválidos",
		"fields": []validation.FieldError{{Field: field, Message: message}},
	})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id inválido"})
		return 0, false
	}
	return uint(id), true
}

// actor must only be called behind JWTAuth.
func actor(c *gin.Context) service.Actor {
	u, _ := middleware.CurrentUser(c)
	if u == nil {
		return service.Actor{}
	}
	return service.Actor{ID: u.ID, Name: u.FullName, Role: u.Role}
}
