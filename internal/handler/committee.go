package handler

import (
	"net/http"

	"decom/internal/model"
	"decom/internal/service"

	"github.com/gin-gonic/gin"
)

type CommitteeHandler struct{ svc *service.CommitteeService }

func NewCommitteeHandler(svc *service.CommitteeService) *CommitteeHandler {
	return &CommitteeHandler{svc: svc}
}

func (h *CommitteeHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if list == nil {
		list = []model.Committee{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommitteeHandler) Create(c *gin.Context) {
	var p model.CommitteePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	cm, err := h.svc.Create(c.Request.Context(), p)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *CommitteeHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p model.CommitteePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	cm, err := h.svc.Update(c.Request.Context(), id, p)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *CommitteeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
