package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/service/forms"
	"github.com/mamadbah2/logidash/internal/service/records"
	"github.com/mamadbah2/logidash/internal/service/view"
)

// ShipmentHandler exposes the shipment collection over HTTP.
type ShipmentHandler struct {
	svc       *records.Shipments
	validator *forms.Validator
	logger    *zap.Logger
}

// NewShipmentHandler constructs the HTTP handler adapter.
func NewShipmentHandler(svc *records.Shipments, validator *forms.Validator, logger *zap.Logger) *ShipmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentHandler{svc: svc, validator: validator, logger: logger}
}

// List returns the cached shipments narrowed by ?search= and ?status=.
func (h *ShipmentHandler) List(c *gin.Context) {
	var filter view.ShipmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if err := filter.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	all := h.svc.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"shipments": filter.Apply(all),
		"total":     len(all),
		"loading":   h.svc.Loading(),
	})
}

// Refresh reloads the cache from the store.
func (h *ShipmentHandler) Refresh(c *gin.Context) {
	if err := h.svc.List(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "Failed to fetch shipments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipments": h.svc.Snapshot()})
}

// Form returns the edit dialog prefilled from the cached shipment.
func (h *ShipmentHandler) Form(c *gin.Context) {
	row, ok := h.svc.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "shipment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": forms.ShipmentFormFrom(row), "modal": view.Editing(row.ID)})
}

// Create submits the create dialog.
func (h *ShipmentHandler) Create(c *gin.Context) {
	var form forms.ShipmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c, h.logger, err)
		return
	}

	ctrl := forms.NewController(h.validator)
	ctrl.OpenCreate()

	var created models.Shipment
	err := ctrl.Submit(c.Request.Context(), form, func(ctx context.Context) error {
		in, err := form.Input()
		if err != nil {
			return err
		}
		created, err = h.svc.Create(ctx, in)
		return err
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create shipment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"shipment": created, "modal": ctrl.Modal()})
}

// Edit submits the edit dialog as a full replacement.
func (h *ShipmentHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	var form forms.ShipmentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c, h.logger, err)
		return
	}

	ctrl := forms.NewController(h.validator)
	ctrl.OpenEdit(id)

	var updated models.Shipment
	err := ctrl.Submit(c.Request.Context(), form, func(ctx context.Context) error {
		patch, err := form.Patch()
		if err != nil {
			return err
		}
		updated, err = h.svc.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update shipment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": updated, "modal": ctrl.Modal()})
}

// Patch applies a partial update, typically a status change.
func (h *ShipmentHandler) Patch(c *gin.Context) {
	var patch models.ShipmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badBody(c, h.logger, err)
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update shipment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shipment": updated})
}

// Delete removes a shipment.
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete shipment")
		return
	}
	c.Status(http.StatusNoContent)
}
