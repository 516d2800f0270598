package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prosiga/enrollment-gateway/internal/models"
	"github.com/prosiga/enrollment-gateway/internal/service"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
	"github.com/prosiga/enrollment-gateway/pkg/response"
)

type catalogQuerier interface {
	Periods(ctx context.Context, session *models.SessionClaims) ([]models.AcademicPeriod, error)
	Query(ctx context.Context, session *models.SessionClaims, periodID int64, filter string) (*service.CatalogView, error)
}

// CatalogHandler exposes the period selector and the debounced catalog
// search.
type CatalogHandler struct {
	catalog catalogQuerier
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog catalogQuerier) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Periods godoc
// @Summary List academic periods
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *CatalogHandler) Periods(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	periods, err := h.catalog.Periods(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods)
}

// Search godoc
// @Summary Search class sections within a period
// @Tags Catalog
// @Produce json
// @Param periodId query int true "Academic period ID"
// @Param q query string false "Course filter"
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	periodID, err := strconv.ParseInt(c.Query("periodId"), 10, 64)
	if err != nil || periodID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "periodId must be a positive integer"))
		return
	}

	view, err := h.catalog.Query(c.Request.Context(), session, periodID, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if view.Superseded {
		meta = map[string]interface{}{"superseded": true}
	}
	response.JSON(c, http.StatusOK, view, meta)
}
