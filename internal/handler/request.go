package handler

import (
	"net/http"

	"decom/internal/model"
	"decom/internal/service"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct{ svc *service.RequestService }

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// POST /api/requests (public)
func (h *RequestHandler) Create(c *gin.Context) {
	var p model.CreateRequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Create(c.Request.Context(), p, nil)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GET /api/admin/requests
func (h *RequestHandler) List(c *gin.Context) {
	var f model.RequestFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/admin/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/admin/requests/:id/history
func (h *RequestHandler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	hist, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if hist == nil {
		hist = []model.RequestHistory{}
	}
	c.JSON(http.StatusOK, hist)
}

// PATCH /api/admin/requests/:id
func (h *RequestHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p model.UpdateRequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Update(c.Request.Context(), id, p, actor(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// POST /api/admin/requests/:id/archive
func (h *RequestHandler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p model.ArchiveRequestPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.Archive(c.Request.Context(), id, p.Reason, p.Password, actor(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
