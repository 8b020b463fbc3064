package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"backend/internal/hierarchy"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hierarchy middleware operations
const (
	HierarchyCreate = "create"
	HierarchyView   = "view"
	HierarchyUpdate = "update"
	HierarchyDelete = "delete"
)

// RoleDirectory resolves role names from storage for the hierarchy gate. It
// is injected explicitly so the middleware carries no ambient database handle.
type RoleDirectory interface {
	// RoleNameByID resolves a role id to its name within one organization.
	RoleNameByID(ctx context.Context, orgID, roleID uuid.UUID) (string, error)
	// UserRole resolves a user's current role id and name, scoped by
	// organization. A user of another organization must not resolve.
	UserRole(ctx context.Context, orgID, userID uuid.UUID) (uuid.UUID, string, error)
}

// rolePayload is the slice of the request body the gate cares about.
type rolePayload struct {
	RoleID string `json:"role_id"`
}

// UserHierarchy gates a user mutation route with a role-vs-role authority
// check. The acting user's role comes from the token identity; the target
// role is resolved from storage:
//
//   - create: the role_id in the request body must be one the actor may assign.
//   - view/update/delete: the target user's current role must be manageable
//     by the actor. Cross-organization targets resolve to 404, never 403.
//   - update additionally re-checks assignability when the body moves the
//     user to a different role.
//
// Routes without a target id pass through; list-level visibility is handled
// per row by the services.
func UserHierarchy(dir RoleDirectory, op string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorRole := c.GetString(CtxUserRole)
		orgID, err := uuid.Parse(c.GetString(CtxOrgID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}
		ctx := c.Request.Context()

		if op == HierarchyCreate {
			payload, ok := peekRolePayload(c)
			if !ok || payload.RoleID == "" {
				// Leave the missing field to the handler's binding validation.
				c.Next()
				return
			}
			roleID, parseErr := uuid.Parse(payload.RoleID)
			if parseErr != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role_id"))
				return
			}
			targetRole, dirErr := dir.RoleNameByID(ctx, orgID, roleID)
			if dirErr != nil {
				abortDirectoryError(c, dirErr, "Role not found")
				return
			}
			if !hierarchy.CanCreateRole(actorRole, targetRole) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden,
					fmt.Sprintf("You cannot create users with role '%s'", targetRole)))
				return
			}
			c.Next()
			return
		}

		idStr := c.Param("id")
		if idStr == "" {
			c.Next()
			return
		}
		userID, parseErr := uuid.Parse(idStr)
		if parseErr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid user id"))
			return
		}

		currentRoleID, targetRole, dirErr := dir.UserRole(ctx, orgID, userID)
		if dirErr != nil {
			abortDirectoryError(c, dirErr, "User not found")
			return
		}
		if !hierarchy.CanManageRole(actorRole, targetRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden,
				fmt.Sprintf("You cannot manage users with role '%s'", targetRole)))
			return
		}

		if op == HierarchyUpdate {
			payload, ok := peekRolePayload(c)
			if ok && payload.RoleID != "" {
				newRoleID, roleParseErr := uuid.Parse(payload.RoleID)
				if roleParseErr != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid role_id"))
					return
				}
				// Being allowed to edit a user does not imply being allowed
				// to move them onto a higher role.
				if newRoleID != currentRoleID {
					newRole, newRoleErr := dir.RoleNameByID(ctx, orgID, newRoleID)
					if newRoleErr != nil {
						abortDirectoryError(c, newRoleErr, "Role not found")
						return
					}
					if !hierarchy.CanCreateRole(actorRole, newRole) {
						c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden,
							fmt.Sprintf("You cannot assign role '%s'", newRole)))
						return
					}
				}
			}
		}

		c.Next()
	}
}

// peekRolePayload reads the request body without consuming it, so the handler
// can still bind the full payload afterwards.
func peekRolePayload(c *gin.Context) (rolePayload, bool) {
	var payload rolePayload
	if c.Request.Body == nil {
		return payload, false
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return payload, false
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false
	}
	return payload, true
}

func abortDirectoryError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Error(http.StatusNotFound, notFoundMsg))
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Database error"))
}
