package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	roleDir     middleware.RoleDirectory
}

func NewUserHandler(userService service.UserService, roleDir middleware.RoleDirectory) *UserHandler {
	return &UserHandler{userService: userService, roleDir: roleDir}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/api/users")
	{
		users.GET("",
			middleware.RequirePermission("admin.users.view"),
			h.ListUsers)
		users.GET("/:id",
			middleware.RequirePermission("admin.users.view"),
			middleware.UserHierarchy(h.roleDir, middleware.HierarchyView),
			h.GetUser)
		users.POST("",
			middleware.RequirePermission("admin.users.create"),
			middleware.UserHierarchy(h.roleDir, middleware.HierarchyCreate),
			h.CreateUser)
		users.PUT("/:id",
			middleware.RequirePermission("admin.users.edit"),
			middleware.UserHierarchy(h.roleDir, middleware.HierarchyUpdate),
			h.UpdateUser)
		users.DELETE("/:id",
			middleware.RequirePermission("admin.users.delete"),
			middleware.UserHierarchy(h.roleDir, middleware.HierarchyDelete),
			h.DeleteUser)
	}
}

// ListUsers returns every user of the caller's organization
// @Summary List users
// @Description Lists all users of the organization; each row carries a can_edit flag computed from the role hierarchy
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.UserResponse}
// @Router /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, users))
}

// GetUser returns a single user by ID
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=service.UserResponse}
// @Failure 404 {object} response.Response
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser creates a new user, konfis included
// @Summary Create user
// @Description Creates a user with the given role; konfi users additionally need a jahrgang_id and get a profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUserRequest true "User data"
// @Success 201 {object} response.Response{data=service.UserResponse}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateUser updates profile fields and optionally reassigns the role
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Fields to update"
// @Success 200 {object} response.Response{data=service.UserResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser soft-deletes a user
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User deleted successfully"}))
}
