package handler

import (
	"net/http"

	"backend/internal/hierarchy"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	{
		roles.GET("", middleware.RequirePermission("admin.roles.view"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission("admin.roles.view"), h.GetRole)
		roles.POST("", middleware.RequirePermission("admin.roles.create"), h.CreateRole)
		roles.PUT("/:id", middleware.RequirePermission("admin.roles.edit"), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermission("admin.roles.delete"), h.DeleteRole)
	}

	perms := router.Group("/api/permissions")
	perms.Use(middleware.RequirePermission("admin.roles.view"))
	{
		perms.GET("", h.ListPermissions)
	}
}

// ListRoles returns all roles of the organization with their permissions
// @Summary List roles
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.RoleResponse}
// @Router /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRole returns a single role by ID
// @Summary Get role
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 200 {object} response.Response{data=service.RoleResponse}
// @Failure 404 {object} response.Response
// @Router /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a custom role
// @Summary Create role
// @Description Creates a custom role; the four system role names are reserved
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateRoleRequest true "Role data"
// @Success 201 {object} response.Response{data=service.RoleResponse}
// @Failure 409 {object} response.Response
// @Router /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := actorFromContext(c)
	if !hierarchy.CanCreateRole(actor.Role, req.Name) {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "You cannot create the role '"+req.Name+"'"))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), actor, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole updates role metadata and permission grants
// @Summary Update role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Param payload body service.UpdateRoleRequest true "Fields to update"
// @Success 200 {object} response.Response{data=service.RoleResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	actor := actorFromContext(c)
	role, err := h.roleService.UpdateRole(c.Request.Context(), actor, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}

	// Invalidate cached grants so permission checks see the change right away.
	middleware.ClearPermissionCache(actor.OrgID.String(), role.Name)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole deletes an unused custom role
// @Summary Delete role
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor := actorFromContext(c)
	role, err := h.roleService.GetRole(c.Request.Context(), actor, id)
	if err != nil {
		respondErr(c, err)
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), actor, id); err != nil {
		respondErr(c, err)
		return
	}

	middleware.ClearPermissionCache(actor.OrgID.String(), role.Name)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

// ListPermissions returns the full permission catalog
// @Summary List permissions
// @Tags roles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.PermissionResponse}
// @Router /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}
