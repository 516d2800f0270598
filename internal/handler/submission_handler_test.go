package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosiga/enrollment-gateway/internal/models"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

type fakeSubmitter struct {
	report *models.SubmissionReport
	err    error
	calls  int
}

func (f *fakeSubmitter) Submit(_ context.Context, _ *models.SessionClaims) (*models.SubmissionReport, error) {
	f.calls++
	return f.report, f.err
}

func TestSubmissionHandlerSubmit(t *testing.T) {
	submitter := &fakeSubmitter{report: &models.SubmissionReport{
		BatchID:      "batch-1",
		SuccessCount: 2,
		Failures: []models.SubmissionFailure{
			{SectionID: 2, CourseName: "Calculo 2", Reason: "turma cheia"},
		},
	}}
	h := NewSubmissionHandler(submitter)

	c, w := newRequestContext(t, http.MethodPost, "/enrollments/submit", "", sessionClaims())
	h.Submit(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, submitter.calls)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["success_count"])
	failures, ok := data["failures"].([]interface{})
	require.True(t, ok)
	require.Len(t, failures, 1)
}

func TestSubmissionHandlerPropagatesConflict(t *testing.T) {
	submitter := &fakeSubmitter{err: appErrors.Clone(appErrors.ErrConflict, "submission already in progress")}
	h := NewSubmissionHandler(submitter)

	c, w := newRequestContext(t, http.MethodPost, "/enrollments/submit", "", sessionClaims())
	h.Submit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmissionHandlerRequiresSession(t *testing.T) {
	submitter := &fakeSubmitter{}
	h := NewSubmissionHandler(submitter)

	c, w := newRequestContext(t, http.MethodPost, "/enrollments/submit", "", nil)
	h.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, submitter.calls)
}
