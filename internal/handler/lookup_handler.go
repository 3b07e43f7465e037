package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minato-edu/tutoring-api/internal/service"
	"github.com/minato-edu/tutoring-api/pkg/response"
)

// LookupHandler exposes type-ahead search endpoints.
type LookupHandler struct {
	lookup *service.LookupService
}

// NewLookupHandler constructs LookupHandler.
func NewLookupHandler(lookup *service.LookupService) *LookupHandler {
	return &LookupHandler{lookup: lookup}
}

// Students godoc
// @Summary Search students for type-ahead selection
// @Tags Lookup
// @Produce json
// @Param q query string false "Search text"
// @Param field query string false "Field to match (full_name, nickname, phone)"
// @Success 200 {object} response.Envelope
// @Router /lookup/students [get]
func (h *LookupHandler) Students(c *gin.Context) {
	results := h.lookup.Students(c.Request.Context(), c.Query("q"), c.Query("field"))
	response.JSON(c, http.StatusOK, results, nil)
}

// Teachers godoc
// @Summary Search teachers for type-ahead selection
// @Tags Lookup
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /lookup/teachers [get]
func (h *LookupHandler) Teachers(c *gin.Context) {
	results := h.lookup.Teachers(c.Request.Context(), c.Query("q"))
	response.JSON(c, http.StatusOK, results, nil)
}

// Courses godoc
// @Summary Search courses for type-ahead selection
// @Tags Lookup
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /lookup/courses [get]
func (h *LookupHandler) Courses(c *gin.Context) {
	results := h.lookup.Courses(c.Request.Context(), c.Query("q"))
	response.JSON(c, http.StatusOK, results, nil)
}
