package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/pkg/response"
)

type batchSubmitter interface {
	Submit(ctx context.Context, session *models.SessionClaims) (*models.SubmissionReport, error)
}

// SubmissionHandler exposes the batch enrollment submission.
type SubmissionHandler struct {
	submissions batchSubmitter
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions batchSubmitter) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit godoc
// @Summary Submit every staged section for enrollment
// @Description Fires one enrollment request per staged section, waits for all of them and reports per-item outcomes; successes leave the staging set, failures stay staged.
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	report, err := h.submissions.Submit(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
