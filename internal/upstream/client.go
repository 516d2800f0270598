package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/pkg/config"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

// periodRecord mirrors the academic backend's period payload.
type periodRecord struct {
	ID       int64 `json:"id"`
	Ano      int   `json:"ano"`
	Semestre int   `json:"semestre"`
}

// sectionRecord mirrors the backend's class section search payload,
// including the caller-specific student status.
type sectionRecord struct {
	IDTurma          int64   `json:"id_turma"`
	CodigoTurma      string  `json:"codigo_turma"`
	CodigoDisciplina string  `json:"codigo_disciplina"`
	NomeDisciplina   string  `json:"nome_disciplina"`
	VagasDisponiveis int     `json:"vagas_disponiveis"`
	Horario          *string `json:"horario"`
	Local            *string `json:"local"`
	Descricao        *string `json:"descricao"`
	SemestreIdeal    *int    `json:"semestre_ideal"`
	StatusAluno      string  `json:"status_aluno"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

var statusByWire = map[string]models.StudentStatus{
	"A_FAZER":      models.StudentStatusToTake,
	"CURSANDO":     models.StudentStatusInProgress,
	"JA_CONCLUIDO": models.StudentStatusCompleted,
	"TRANCADO":     models.StudentStatusWithdrawn,
}

// Client talks to the PróSiga academic backend. It is a thin boundary: JSON
// is parsed into explicit record types here and nothing else trusts the
// upstream shape.
type Client struct {
	baseURL      string
	queryClient  *http.Client
	submitClient *http.Client
}

// New constructs an upstream client from configuration.
func New(cfg config.UpstreamConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		queryClient:  &http.Client{Timeout: cfg.RequestTimeout},
		submitClient: &http.Client{Timeout: cfg.SubmitTimeout},
	}
}

// ListPeriods fetches the available academic periods, most recent first.
func (c *Client) ListPeriods(ctx context.Context, token string) ([]models.AcademicPeriod, error) {
	body, err := c.get(ctx, token, "/periodos-letivos", nil)
	if err != nil {
		return nil, err
	}

	var records []periodRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServerRejected.Code, appErrors.ErrServerRejected.Status, "malformed periods payload")
	}

	periods := make([]models.AcademicPeriod, 0, len(records))
	for _, r := range records {
		periods = append(periods, models.AcademicPeriod{ID: r.ID, Year: r.Ano, Term: r.Semestre})
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].Year != periods[j].Year {
			return periods[i].Year > periods[j].Year
		}
		return periods[i].Term > periods[j].Term
	})
	return periods, nil
}

// SearchSections queries class sections within a period, with an optional
// course filter matched server-side.
func (c *Client) SearchSections(ctx context.Context, token string, periodID int64, filter string) ([]models.ClassSection, error) {
	params := url.Values{}
	params.Set("periodo_letivo_id", strconv.FormatInt(periodID, 10))
	if filter != "" {
		params.Set("filtro", filter)
	}

	body, err := c.get(ctx, token, "/turmas/busca", params)
	if err != nil {
		return nil, err
	}

	var records []sectionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServerRejected.Code, appErrors.ErrServerRejected.Status, "malformed catalog payload")
	}

	sections := make([]models.ClassSection, 0, len(records))
	for _, r := range records {
		section, err := r.toSection()
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// Enroll submits one enrollment request for a section. The backend
// re-validates seats and prerequisites authoritatively; a structured
// refusal surfaces its detail verbatim.
func (c *Client) Enroll(ctx context.Context, token string, sectionID int64) error {
	payload, _ := json.Marshal(map[string]int64{"id_turma": sectionID})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/matriculas", bytes.NewReader(payload))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build enrollment request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.submitClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	return rejectionFromResponse(resp)
}

// FetchDocument streams a document (e.g. a transcript PDF) from the
// backend without transformation. The caller owns the returned body.
func (c *Client) FetchDocument(ctx context.Context, token, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build document request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, rejectionFromResponse(resp)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, token, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, rejectionFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "read upstream response")
	}
	return body, nil
}

// rejectionFromResponse converts an upstream error response into a typed
// rejection, preserving the backend's status code and detail string.
func rejectionFromResponse(resp *http.Response) *appErrors.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	message := fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		message = parsed.Detail
	}

	rejection := appErrors.Clone(appErrors.ErrServerRejected, message)
	rejection.Status = resp.StatusCode
	return rejection
}

func (r sectionRecord) toSection() (models.ClassSection, error) {
	status, ok := statusByWire[r.StatusAluno]
	if !ok {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrServerRejected, fmt.Sprintf("unknown student status %q", r.StatusAluno))
	}
	if r.VagasDisponiveis < 0 {
		return models.ClassSection{}, appErrors.Clone(appErrors.ErrServerRejected, "negative seat count in catalog payload")
	}

	section := models.ClassSection{
		SectionID:      r.IDTurma,
		SectionCode:    r.CodigoTurma,
		CourseCode:     r.CodigoDisciplina,
		CourseName:     r.NomeDisciplina,
		AvailableSeats: r.VagasDisponiveis,
		IdealSemester:  r.SemestreIdeal,
		StudentStatus:  status,
	}
	if r.Horario != nil {
		section.Schedule = *r.Horario
	}
	if r.Local != nil {
		section.Location = *r.Local
	}
	if r.Descricao != nil {
		section.Description = *r.Descricao
	}
	return section, nil
}
