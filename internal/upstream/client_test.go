package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/pkg/config"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.UpstreamConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		SubmitTimeout:  5 * time.Second,
	})
}

func TestListPeriodsSortsMostRecentFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/periodos-letivos", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "ano": 2024, "semestre": 2},
			{"id": 3, "ano": 2025, "semestre": 2},
			{"id": 2, "ano": 2025, "semestre": 1}
		]`))
	})

	periods, err := client.ListPeriods(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, int64(3), periods[0].ID)
	assert.Equal(t, int64(2), periods[1].ID)
	assert.Equal(t, int64(1), periods[2].ID)
}

func TestSearchSectionsMapsWireFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/turmas/busca", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("periodo_letivo_id"))
		assert.Equal(t, "calculo", r.URL.Query().Get("filtro"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id_turma": 11,
			"codigo_turma": "T02",
			"codigo_disciplina": "MAT0026",
			"nome_disciplina": "Calculo 2",
			"vagas_disponiveis": 3,
			"horario": "35T23",
			"local": "PAT AT-041",
			"descricao": null,
			"semestre_ideal": 2,
			"status_aluno": "A_FAZER"
		}]`))
	})

	sections, err := client.SearchSections(context.Background(), "tok", 42, "calculo")
	require.NoError(t, err)
	require.Len(t, sections, 1)

	section := sections[0]
	assert.Equal(t, int64(11), section.SectionID)
	assert.Equal(t, "T02", section.SectionCode)
	assert.Equal(t, "MAT0026", section.CourseCode)
	assert.Equal(t, "Calculo 2", section.CourseName)
	assert.Equal(t, 3, section.AvailableSeats)
	assert.Equal(t, "35T23", section.Schedule)
	assert.Equal(t, "PAT AT-041", section.Location)
	assert.Empty(t, section.Description)
	require.NotNil(t, section.IdealSemester)
	assert.Equal(t, 2, *section.IdealSemester)
	assert.Equal(t, models.StudentStatusToTake, section.StudentStatus)
}

func TestSearchSectionsMapsEveryStudentStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id_turma": 1, "vagas_disponiveis": 1, "status_aluno": "A_FAZER"},
			{"id_turma": 2, "vagas_disponiveis": 1, "status_aluno": "CURSANDO"},
			{"id_turma": 3, "vagas_disponiveis": 1, "status_aluno": "JA_CONCLUIDO"},
			{"id_turma": 4, "vagas_disponiveis": 1, "status_aluno": "TRANCADO"}
		]`))
	})

	sections, err := client.SearchSections(context.Background(), "tok", 1, "")
	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, models.StudentStatusToTake, sections[0].StudentStatus)
	assert.Equal(t, models.StudentStatusInProgress, sections[1].StudentStatus)
	assert.Equal(t, models.StudentStatusCompleted, sections[2].StudentStatus)
	assert.Equal(t, models.StudentStatusWithdrawn, sections[3].StudentStatus)
}

func TestSearchSectionsRejectsUnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id_turma": 1, "vagas_disponiveis": 1, "status_aluno": "INVALIDO"}]`))
	})

	_, err := client.SearchSections(context.Background(), "tok", 1, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrServerRejected))
}

func TestSearchSectionsRejectsMalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	})

	_, err := client.SearchSections(context.Background(), "tok", 1, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrServerRejected))
}

func TestEnrollSendsSectionPayload(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/matriculas", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Enroll(context.Background(), "tok", 11)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_turma": 11}`, gotBody)
}

func TestEnrollSurfacesStructuredRejectionVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "Conflito de horario com a turma MAT0025-T01"}`))
	})

	err := client.Enroll(context.Background(), "tok", 11)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrServerRejected.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Conflito de horario com a turma MAT0025-T01", appErr.Message)
}

func TestEnrollFallsBackToStatusOnOpaqueBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	err := client.Enroll(context.Background(), "tok", 11)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrServerRejected.Code, appErr.Code)
	assert.Equal(t, "upstream returned status 500", appErr.Message)
}

func TestEnrollReportsNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := New(config.UpstreamConfig{BaseURL: srv.URL, RequestTimeout: time.Second, SubmitTimeout: time.Second})

	err := client.Enroll(context.Background(), "tok", 11)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNetwork))
}

func TestFetchDocumentPassesThroughHeadersAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usuarios/me/historico-pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="historico.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	})

	resp, err := client.FetchDocument(context.Background(), "tok", "/usuarios/me/historico-pdf")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="historico.pdf"`, resp.Header.Get("Content-Disposition"))
}

func TestFetchDocumentRejectsUpstreamErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "historico indisponivel"}`))
	})

	_, err := client.FetchDocument(context.Background(), "tok", "/usuarios/me/historico-pdf")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "historico indisponivel", appErr.Message)
}
