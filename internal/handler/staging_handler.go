package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/prosiga/enrollment-gateway/internal/models"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
	"github.com/prosiga/enrollment-gateway/pkg/response"
)

type stagingSet interface {
	Add(userID string, section models.ClassSection) (bool, error)
	Remove(userID string, sectionID int64) error
	Clear(userID string) error
	List(userID string) []models.StagingEntry
}

// StageSectionRequest is the payload for staging one class section. The
// client echoes back the section it picked from the catalog results.
type StageSectionRequest struct {
	SectionID      int64                `json:"section_id" validate:"required"`
	SectionCode    string               `json:"section_code"`
	CourseCode     string               `json:"course_code" validate:"required"`
	CourseName     string               `json:"course_name" validate:"required"`
	AvailableSeats int                  `json:"available_seats" validate:"gte=0"`
	Schedule       string               `json:"schedule"`
	Location       string               `json:"location"`
	IdealSemester  *int                 `json:"ideal_semester"`
	StudentStatus  models.StudentStatus `json:"student_status" validate:"required"`
}

// StagingHandler exposes the selection staging set.
type StagingHandler struct {
	staging   stagingSet
	validator *validator.Validate
}

// NewStagingHandler constructs StagingHandler.
func NewStagingHandler(staging stagingSet, validate *validator.Validate) *StagingHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &StagingHandler{staging: staging, validator: validate}
}

// List godoc
// @Summary List staged sections in insertion order
// @Tags Staging
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /staging [get]
func (h *StagingHandler) List(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	entries := h.staging.List(session.Subject)
	if entries == nil {
		entries = []models.StagingEntry{}
	}
	response.JSON(c, http.StatusOK, entries)
}

// Add godoc
// @Summary Stage a class section for enrollment
// @Tags Staging
// @Accept json
// @Produce json
// @Param payload body StageSectionRequest true "Section to stage"
// @Success 201 {object} response.Envelope
// @Router /staging [post]
func (h *StagingHandler) Add(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req StageSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid staging payload"))
		return
	}
	if !req.StudentStatus.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown student status"))
		return
	}

	section := models.ClassSection{
		SectionID:      req.SectionID,
		SectionCode:    req.SectionCode,
		CourseCode:     req.CourseCode,
		CourseName:     req.CourseName,
		AvailableSeats: req.AvailableSeats,
		Schedule:       req.Schedule,
		Location:       req.Location,
		IdealSemester:  req.IdealSemester,
		StudentStatus:  req.StudentStatus,
	}

	added, err := h.staging.Add(session.Subject, section)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !added {
		// Already staged: idempotent no-op, surfaced as a warning.
		response.JSON(c, http.StatusOK, h.staging.List(session.Subject), map[string]interface{}{"already_staged": true})
		return
	}
	response.Created(c, h.staging.List(session.Subject))
}

// Remove godoc
// @Summary Remove a staged section
// @Tags Staging
// @Produce json
// @Param sectionId path int true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /staging/{sectionId} [delete]
func (h *StagingHandler) Remove(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	sectionID, err := strconv.ParseInt(c.Param("sectionId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sectionId must be an integer"))
		return
	}

	if err := h.staging.Remove(session.Subject, sectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.staging.List(session.Subject))
}

// Clear godoc
// @Summary Empty the staging set
// @Tags Staging
// @Produce json
// @Success 204 "cleared"
// @Router /staging [delete]
func (h *StagingHandler) Clear(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.staging.Clear(session.Subject); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
