package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/internal/service"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

type fakeCatalog struct {
	periods    []models.AcademicPeriod
	periodsErr error
	view       *service.CatalogView
	queryErr   error

	lastPeriodID int64
	lastFilter   string
}

func (f *fakeCatalog) Periods(_ context.Context, _ *models.SessionClaims) ([]models.AcademicPeriod, error) {
	return f.periods, f.periodsErr
}

func (f *fakeCatalog) Query(_ context.Context, _ *models.SessionClaims, periodID int64, filter string) (*service.CatalogView, error) {
	f.lastPeriodID = periodID
	f.lastFilter = filter
	return f.view, f.queryErr
}

func TestCatalogHandlerPeriods(t *testing.T) {
	catalog := &fakeCatalog{periods: []models.AcademicPeriod{{ID: 1, Year: 2025, Term: 2}}}
	h := NewCatalogHandler(catalog)

	c, w := newRequestContext(t, http.MethodGet, "/periods", "", sessionClaims())
	h.Periods(c)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope["data"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCatalogHandlerSearch(t *testing.T) {
	catalog := &fakeCatalog{view: &service.CatalogView{PeriodID: 42, Filter: "calc"}}
	h := NewCatalogHandler(catalog)

	c, w := newRequestContext(t, http.MethodGet, "/catalog?periodId=42&q=calc", "", sessionClaims())
	h.Search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), catalog.lastPeriodID)
	assert.Equal(t, "calc", catalog.lastFilter)

	envelope := decodeEnvelope(t, w)
	assert.Nil(t, envelope["meta"])
}

func TestCatalogHandlerSearchFlagsSupersededResult(t *testing.T) {
	catalog := &fakeCatalog{view: &service.CatalogView{PeriodID: 42, Superseded: true}}
	h := NewCatalogHandler(catalog)

	c, w := newRequestContext(t, http.MethodGet, "/catalog?periodId=42&q=c", "", sessionClaims())
	h.Search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	meta, ok := envelope["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, meta["superseded"])
}

func TestCatalogHandlerSearchValidatesPeriodID(t *testing.T) {
	catalog := &fakeCatalog{}
	h := NewCatalogHandler(catalog)

	for _, target := range []string{"/catalog", "/catalog?periodId=abc", "/catalog?periodId=0", "/catalog?periodId=-3"} {
		c, w := newRequestContext(t, http.MethodGet, target, "", sessionClaims())
		h.Search(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	assert.Zero(t, catalog.lastPeriodID)
}

func TestCatalogHandlerSearchPropagatesUpstreamErrors(t *testing.T) {
	catalog := &fakeCatalog{queryErr: appErrors.Clone(appErrors.ErrNetwork, "connection refused")}
	h := NewCatalogHandler(catalog)

	c, w := newRequestContext(t, http.MethodGet, "/catalog?periodId=42", "", sessionClaims())
	h.Search(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	envelope := decodeEnvelope(t, w)
	errBody, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NETWORK_ERROR", errBody["code"])
}

func TestCatalogHandlerRequiresSession(t *testing.T) {
	h := NewCatalogHandler(&fakeCatalog{})

	c, w := newRequestContext(t, http.MethodGet, "/catalog?periodId=42", "", nil)
	h.Search(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newRequestContext(t, http.MethodGet, "/periods", "", nil)
	h.Periods(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
