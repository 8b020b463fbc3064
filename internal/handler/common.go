package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFromContext rebuilds the request identity from the context keys set by
// the token middleware.
func actorFromContext(c *gin.Context) service.Actor {
	userID, _ := uuid.Parse(c.GetString(middleware.CtxUserID))
	orgID, _ := uuid.Parse(c.GetString(middleware.CtxOrgID))
	return service.Actor{
		ID:          userID,
		OrgID:       orgID,
		Role:        c.GetString(middleware.CtxUserRole),
		Type:        c.GetString(middleware.CtxUserType),
		DisplayName: c.GetString(middleware.CtxDisplayName),
	}
}

// respondErr maps a service error onto the response envelope.
func respondErr(c *gin.Context, err error) {
	appErr := apperr.From(err)
	c.JSON(appErr.Status, response.Error(appErr.Status, appErr.Message))
}

// parseIDParam reads a UUID path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}
