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

// CustomerHandler exposes the customer collection over HTTP.
type CustomerHandler struct {
	svc       *records.Customers
	validator *forms.Validator
	logger    *zap.Logger
}

// NewCustomerHandler constructs the HTTP handler adapter.
func NewCustomerHandler(svc *records.Customers, validator *forms.Validator, logger *zap.Logger) *CustomerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerHandler{svc: svc, validator: validator, logger: logger}
}

// List returns the cached customers narrowed by ?search= and ?status=.
func (h *CustomerHandler) List(c *gin.Context) {
	var filter view.CustomerFilter
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
		"customers": filter.Apply(all),
		"total":     len(all),
		"loading":   h.svc.Loading(),
	})
}

// Refresh reloads the cache from the store.
func (h *CustomerHandler) Refresh(c *gin.Context) {
	if err := h.svc.List(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "Failed to fetch customers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": h.svc.Snapshot()})
}

// Form returns the edit dialog prefilled from the cached customer.
func (h *CustomerHandler) Form(c *gin.Context) {
	row, ok := h.svc.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": forms.CustomerFormFrom(row), "modal": view.Editing(row.ID)})
}

// Create submits the create dialog.
func (h *CustomerHandler) Create(c *gin.Context) {
	var form forms.CustomerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c, h.logger, err)
		return
	}

	ctrl := forms.NewController(h.validator)
	ctrl.OpenCreate()

	var created models.Customer
	err := ctrl.Submit(c.Request.Context(), form, func(ctx context.Context) error {
		var err error
		created, err = h.svc.Create(ctx, form.Input())
		return err
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create customer")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": created, "modal": ctrl.Modal()})
}

// Edit submits the edit dialog as a full replacement.
func (h *CustomerHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	var form forms.CustomerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badBody(c, h.logger, err)
		return
	}

	ctrl := forms.NewController(h.validator)
	ctrl.OpenEdit(id)

	var updated models.Customer
	err := ctrl.Submit(c.Request.Context(), form, func(ctx context.Context) error {
		var err error
		updated, err = h.svc.Update(ctx, id, form.Patch())
		return err
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": updated, "modal": ctrl.Modal()})
}

// Patch applies a partial update such as an active/inactive toggle.
func (h *CustomerHandler) Patch(c *gin.Context) {
	var patch models.CustomerPatch
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
		respondError(c, h.logger, err, "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": updated})
}

// Delete removes a customer.
func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete customer")
		return
	}
	c.Status(http.StatusNoContent)
}
