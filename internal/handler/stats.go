package handler

import (
	"net/http"
	"sort"

	"decom/internal/service"
	"decom/internal/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StatsHandler struct{ svc *service.StatsService }

func NewStatsHandler(svc *service.StatsService) *StatsHandler { return &StatsHandler{svc: svc} }

func (h *StatsHandler) Public(c *gin.Context) {
	st, err := h.svc.Public(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *StatsHandler) Admin(c *gin.Context) {
	st, err := h.svc.Admin(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/schemas
func ListSchemas(c *gin.Context) {
	names := validation.SchemaNames()
	sort.Strings(names)
	c.JSON(http.StatusOK, names)
}

// GET /api/schemas/:name
func GetSchema(c *gin.Context) {
	rules, ok := validation.Schema(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "esquema desconocido"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "fields": rules})
}

// Health pings the database.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
