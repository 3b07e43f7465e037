package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minato-edu/tutoring-api/internal/service"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
	"github.com/minato-edu/tutoring-api/pkg/export"
	"github.com/minato-edu/tutoring-api/pkg/response"
)

// WizardHandler exposes the enrollment wizard endpoints.
type WizardHandler struct {
	wizard   *service.WizardService
	exporter *export.CSVExporter
}

// NewWizardHandler constructs WizardHandler.
func NewWizardHandler(wizard *service.WizardService) *WizardHandler {
	return &WizardHandler{wizard: wizard, exporter: export.NewCSVExporter()}
}

// Start godoc
// @Summary Open an enrollment draft
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param payload body service.StartWizardRequest true "Wizard payload"
// @Success 201 {object} response.Envelope
// @Router /enrollment/drafts [post]
func (h *WizardHandler) Start(c *gin.Context) {
	var req service.StartWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.wizard.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Get godoc
// @Summary Fetch an enrollment draft
// @Tags Enrollment Wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id} [get]
func (h *WizardHandler) Get(c *gin.Context) {
	draft, err := h.wizard.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitStudents godoc
// @Summary Submit the selected students
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.SubmitStudentsRequest true "Students payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id}/students [put]
func (h *WizardHandler) SubmitStudents(c *gin.Context) {
	var req service.SubmitStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.wizard.SubmitStudents(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitSchedule godoc
// @Summary Submit the class schedule spec
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.SubmitScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id}/schedule [put]
func (h *WizardHandler) SubmitSchedule(c *gin.Context) {
	var req service.SubmitScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.wizard.SubmitSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// SubmitTeacher godoc
// @Summary Submit the teacher and room assignment
// @Tags Enrollment Wizard
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.SubmitTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id}/teacher [put]
func (h *WizardHandler) SubmitTeacher(c *gin.Context) {
	var req service.SubmitTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft, err := h.wizard.SubmitTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Back godoc
// @Summary Return the draft to its previous step
// @Tags Enrollment Wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id}/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	draft, err := h.wizard.Back(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Preview godoc
// @Summary Materialize schedule rows with conflict warnings
// @Tags Enrollment Wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /enrollment/drafts/{id}/preview [get]
func (h *WizardHandler) Preview(c *gin.Context) {
	preview, err := h.wizard.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// ExportCSV godoc
// @Summary Download the draft's schedule as CSV
// @Tags Enrollment Wizard
// @Produce text/csv
// @Param id path string true "Draft ID"
// @Success 200 {string} string "CSV content"
// @Router /enrollment/drafts/{id}/schedule.csv [get]
func (h *WizardHandler) ExportCSV(c *gin.Context) {
	preview, err := h.wizard.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exporter.Render(export.ScheduleDataset(preview.Rows))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}
	filename := fmt.Sprintf("schedule-%s.csv", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Confirm godoc
// @Summary Confirm the draft and create the enrollment package
// @Tags Enrollment Wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 201 {object} response.Envelope
// @Router /enrollment/drafts/{id}/confirm [post]
func (h *WizardHandler) Confirm(c *gin.Context) {
	pkg, err := h.wizard.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pkg)
}

// Cancel godoc
// @Summary Discard the draft
// @Tags Enrollment Wizard
// @Produce json
// @Param id path string true "Draft ID"
// @Success 204 "No Content"
// @Router /enrollment/drafts/{id} [delete]
func (h *WizardHandler) Cancel(c *gin.Context) {
	if err := h.wizard.Cancel(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
