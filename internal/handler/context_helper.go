package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prosiga/enrollment-gateway/internal/middleware"
	"github.com/prosiga/enrollment-gateway/internal/models"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
	"github.com/prosiga/enrollment-gateway/pkg/response"
)

// currentSession fetches the session claims installed by the auth
// middleware; it writes the error response itself when absent.
func currentSession(c *gin.Context) (*models.SessionClaims, bool) {
	session := middleware.Session(c)
	if session == nil || session.Token == "" {
		response.Error(c, appErrors.ErrAuthenticationMissing)
		return nil, false
	}
	return session, true
}
