package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nursan/oiltrade-rates/internal/http/middleware"
	"github.com/nursan/oiltrade-rates/internal/model"
	"github.com/nursan/oiltrade-rates/internal/rates"
	"github.com/nursan/oiltrade-rates/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	orders *service.OrderService
	log    zerolog.Logger
}

func NewHandler(orders *service.OrderService, log zerolog.Logger) *Handler {
	return &Handler{orders: orders, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/materials", h.listMaterials)
	protected.POST("/sessions", h.openSession)
	protected.GET("/sessions/:id", h.getSession)
	protected.DELETE("/sessions/:id", h.closeSession)
	protected.PUT("/sessions/:id/customer", h.switchCustomer)
	protected.POST("/sessions/:id/items", h.addItem)
	protected.PUT("/sessions/:id/items/:materialID", h.updateItem)
	protected.DELETE("/sessions/:id/items/:materialID", h.removeItem)
	protected.POST("/sessions/:id/override/approve", h.approveOverride)
	protected.POST("/sessions/:id/override/cancel", h.cancelOverride)
	protected.GET("/sessions/:id/warnings", h.warnings)
	protected.GET("/sessions/:id/rates/:materialID", h.rateDetails)
	protected.POST("/sessions/:id/export", h.exportRateSheet)
	protected.POST("/sessions/:id/export/pdf", h.exportConfirmation)
}

func (h *Handler) listMaterials(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	materials, err := h.orders.Materials(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materialResponses(materials)})
}

type openSessionRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

func (h *Handler) openSession(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}

	snapshot, err := h.orders.OpenSession(c.Request.Context(), principal, customerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshotResponse(snapshot))
}

func (h *Handler) getSession(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	snapshot, err := h.orders.GetSession(c.Request.Context(), principal, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

func (h *Handler) closeSession(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	if err := h.orders.CloseSession(c.Request.Context(), principal, sessionID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type switchCustomerRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

func (h *Handler) switchCustomer(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	var req switchCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}

	snapshot, err := h.orders.SwitchCustomer(c.Request.Context(), principal, sessionID, customerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

type addItemRequest struct {
	MaterialID string  `json:"material_id" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required"`
}

func (h *Handler) addItem(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	materialID, err := uuid.Parse(strings.TrimSpace(req.MaterialID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material_id"})
		return
	}

	snapshot, err := h.orders.AddItem(c.Request.Context(), principal, sessionID, materialID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

type updateItemRequest struct {
	Quantity *float64 `json:"quantity"`
	Rate     *float64 `json:"rate"`
}

func (h *Handler) updateItem(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	materialID, err := uuid.Parse(c.Param("materialID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material id"})
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.orders.UpdateItem(c.Request.Context(), principal, sessionID, materialID, service.UpdateItemInput{
		Quantity: req.Quantity,
		Rate:     req.Rate,
	})
	if errors.Is(err, rates.ErrRateLocked) {
		// The edit was intercepted; the approval dialog needs the pending
		// request, so the locked response still carries the snapshot.
		c.JSON(http.StatusConflict, gin.H{
			"error":   err.Error(),
			"locked":  true,
			"session": snapshotResponse(snapshot),
		})
		return
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

func (h *Handler) removeItem(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	materialID, err := uuid.Parse(c.Param("materialID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material id"})
		return
	}
	snapshot, err := h.orders.RemoveItem(c.Request.Context(), principal, sessionID, materialID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

type approveOverrideRequest struct {
	Reason     string `json:"reason"`
	Credential string `json:"credential" binding:"required"`
}

func (h *Handler) approveOverride(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	var req approveOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := h.orders.ApproveOverride(c.Request.Context(), principal, sessionID, req.Reason, req.Credential)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

func (h *Handler) cancelOverride(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	snapshot, err := h.orders.CancelOverride(c.Request.Context(), principal, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snapshot))
}

func (h *Handler) warnings(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	warnings, err := h.orders.Warnings(c.Request.Context(), principal, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": warningResponses(warnings)})
}

func (h *Handler) rateDetails(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	materialID, err := uuid.Parse(c.Param("materialID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material id"})
		return
	}
	details, err := h.orders.RateDetails(c.Request.Context(), principal, sessionID, materialID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rateDetailsResponse(details))
}

func (h *Handler) exportRateSheet(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	result, err := h.orders.ExportRateSheet(c.Request.Context(), principal, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) exportConfirmation(c *gin.Context) {
	principal, sessionID, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	result, err := h.orders.ExportConfirmation(c.Request.Context(), principal, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) sessionRequest(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, sessionID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, rates.ErrInvalidCredential):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, rates.ErrReasonRequired),
		errors.Is(err, service.ErrEmptyOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, rates.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, rates.ErrDuplicateLine),
		errors.Is(err, rates.ErrOverridePending),
		errors.Is(err, rates.ErrNoPendingOverride):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("order session request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
