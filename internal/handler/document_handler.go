package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prosiga/enrollment-gateway/pkg/response"
)

const transcriptPath = "/usuarios/me/historico-pdf"

type documentFetcher interface {
	FetchDocument(ctx context.Context, token, path string) (*http.Response, error)
}

// DocumentHandler proxies document downloads from the academic backend as
// opaque byte streams; generation happens server-side.
type DocumentHandler struct {
	upstream documentFetcher
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(upstream documentFetcher) *DocumentHandler {
	return &DocumentHandler{upstream: upstream}
}

// Transcript godoc
// @Summary Download the student's academic transcript
// @Tags Documents
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /documents/transcript [get]
func (h *DocumentHandler) Transcript(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	resp, err := h.upstream.FetchDocument(c.Request.Context(), session.Token, transcriptPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extraHeaders := map[string]string{}
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		extraHeaders["Content-Disposition"] = disposition
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, extraHeaders)
}
