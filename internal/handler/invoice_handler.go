package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minato-edu/tutoring-api/internal/service"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
	"github.com/minato-edu/tutoring-api/pkg/response"
)

// InvoiceHandler exposes invoice draft endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Open godoc
// @Summary Open an invoice draft
// @Tags Invoices
// @Accept json
// @Produce json
// @Param payload body service.OpenInvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Router /invoices/drafts [post]
func (h *InvoiceHandler) Open(c *gin.Context) {
	var req service.OpenInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.invoices.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Fetch an invoice draft with its derived total
// @Tags Invoices
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/drafts/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	view, err := h.invoices.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ListDiscounts godoc
// @Summary List the active discount catalog
// @Tags Invoices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /discounts [get]
func (h *InvoiceHandler) ListDiscounts(c *gin.Context) {
	discounts, err := h.invoices.ListDiscounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, discounts, nil)
}

// AddDiscount godoc
// @Summary Apply a catalog discount to the draft
// @Tags Invoices
// @Produce json
// @Param id path string true "Draft ID"
// @Param discountId path string true "Discount ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/drafts/{id}/discounts/{discountId} [put]
func (h *InvoiceHandler) AddDiscount(c *gin.Context) {
	view, err := h.invoices.AddDiscount(c.Request.Context(), c.Param("id"), c.Param("discountId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// RemoveDiscount godoc
// @Summary Remove an applied discount from the draft
// @Tags Invoices
// @Produce json
// @Param id path string true "Draft ID"
// @Param discountId path string true "Discount ID"
// @Success 200 {object} response.Envelope
// @Router /invoices/drafts/{id}/discounts/{discountId} [delete]
func (h *InvoiceHandler) RemoveDiscount(c *gin.Context) {
	view, err := h.invoices.RemoveDiscount(c.Param("id"), c.Param("discountId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Submit godoc
// @Summary Submit the draft as a new invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Draft ID"
// @Success 201 {object} response.Envelope
// @Router /invoices/drafts/{id}/submit [post]
func (h *InvoiceHandler) Submit(c *gin.Context) {
	invoice, err := h.invoices.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// Cancel godoc
// @Summary Discard the invoice draft
// @Tags Invoices
// @Produce json
// @Param id path string true "Draft ID"
// @Success 204 "No Content"
// @Router /invoices/drafts/{id} [delete]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	if err := h.invoices.Cancel(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
