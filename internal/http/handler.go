package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tracking-service/internal/http/middleware"
	"tracking-service/internal/model"
	"tracking-service/internal/service"
	"tracking-service/internal/ws"
)

type Handler struct {
	dashboard *service.Dashboard
	poller    *service.Poller
	hub       *ws.Hub
	log       zerolog.Logger
}

func NewHandler(dashboard *service.Dashboard, poller *service.Poller, hub *ws.Hub, log zerolog.Logger) *Handler {
	return &Handler{dashboard: dashboard, poller: poller, hub: hub, log: log}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.health)

	protected := r.Group("/tracking")
	protected.Use(authMiddleware)

	protected.GET("/dashboard", h.getDashboard)
	protected.GET("/render", h.getRender)
	protected.GET("/screens", h.getScreens)
	protected.GET("/materials", h.getMaterials)
	protected.POST("/select", h.selectScreen)
	protected.POST("/material", h.selectMaterial)
	protected.POST("/tab", h.setTab)
	protected.POST("/date", h.setDate)
	protected.POST("/route/load", h.loadRoute)
	protected.POST("/refresh", h.refresh)
	protected.GET("/ws", h.serveWS)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getDashboard(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) getRender(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.Render()))
}

func (h *Handler) getScreens(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	state := h.dashboard.State()
	c.JSON(http.StatusOK, successResponse(gin.H{
		"screens": state.Screens,
		"summary": state.Summary,
	}))
}

func (h *Handler) getMaterials(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State().Materials))
}

func (h *Handler) selectScreen(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req struct {
		DeviceID string `json:"device_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DeviceID) == "" {
		c.JSON(http.StatusBadRequest, errorResponse("device_id is required"))
		return
	}

	if err := h.dashboard.SelectScreen(strings.TrimSpace(req.DeviceID)); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) selectMaterial(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req struct {
		MaterialID string `json:"material_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if err := h.dashboard.SelectMaterial(strings.TrimSpace(req.MaterialID)); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) setTab(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req struct {
		Tab string `json:"tab"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if err := h.dashboard.SetTab(model.Tab(strings.ToLower(strings.TrimSpace(req.Tab)))); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) setDate(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if err := h.dashboard.SetDate(strings.TrimSpace(req.Date)); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) loadRoute(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	if err := h.dashboard.LoadRoute(); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.dashboard.State()))
}

func (h *Handler) refresh(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	h.poller.Refresh()
	c.JSON(http.StatusAccepted, successResponse(gin.H{"refreshing": true}))
}

func (h *Handler) serveWS(c *gin.Context) {
	if !h.authorize(c) {
		return
	}

	if err := ws.Serve(h.hub, c.Writer, c.Request); err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
	}
}

// authorize rejects callers without dashboard visibility. Driver tokens are
// device credentials and never see the fleet.
func (h *Handler) authorize(c *gin.Context) bool {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return false
	}
	if !principal.AllowsTracking() {
		c.JSON(http.StatusForbidden, errorResponse(service.ErrPermissionDenied.Error()))
		return false
	}
	return true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnknownDevice), errors.Is(err, service.ErrUnknownMaterial):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNoSelection), errors.Is(err, service.ErrInvalidTab):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{"data": data}
}

func errorResponse(message string) gin.H {
	return gin.H{"error": message}
}
