package handler

import (
	"net/http"

	"decom/internal/schedule"
	"decom/internal/service"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	svc   *service.RequestService
	clock *schedule.Clock
}

func NewCalendarHandler(svc *service.RequestService, clock *schedule.Clock) *CalendarHandler {
	return &CalendarHandler{svc: svc, clock: clock}
}

// GET /api/calendar?month=YYYY-MM
func (h *CalendarHandler) Public(c *gin.Context) { h.month(c, true) }

// GET /api/admin/calendar?month=YYYY-MM
func (h *CalendarHandler) Admin(c *gin.Context) { h.month(c, false) }

func (h *CalendarHandler) month(c *gin.Context, public bool) {
	month := h.clock.Today()
	if m := c.Query("month"); m != "" {
		d, err := schedule.ParseMonth(m)
		if err != nil {
			fieldError(c, "month", "month debe tener formato AAAA-MM")
			return
		}
		month = d
	}
	entries, err := h.svc.Calendar(c.Request.Context(), month, public)
	if err != nil {
		respondErr(c, err)
		return
	}
	first, _ := schedule.Month(month)
	c.JSON(http.StatusOK, gin.H{"month": first.Format("2006-01"), "entries": entries})
}
