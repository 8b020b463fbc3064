package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	orgs := router.Group("/api/organizations")
	orgs.Use(middleware.RequirePermission("admin.organizations.manage"))
	{
		orgs.GET("", h.ListOrganizations)
		orgs.GET("/:id", h.GetOrganization)
		orgs.POST("", h.CreateOrganization)
		orgs.PUT("/:id", h.UpdateOrganization)
	}
}

// ListOrganizations returns all organizations
// @Summary List organizations
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Organization}
// @Router /api/organizations [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgService.ListOrganizations(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, orgs))
}

// GetOrganization returns a single organization
// @Summary Get organization
// @Tags organizations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organization ID"
// @Success 200 {object} response.Response{data=model.Organization}
// @Failure 404 {object} response.Response
// @Router /api/organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganization(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// CreateOrganization creates an organization and seeds its system roles
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateOrganizationRequest true "Organization data"
// @Success 201 {object} response.Response{data=model.Organization}
// @Failure 409 {object} response.Response
// @Router /api/organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.CreateOrganization(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// UpdateOrganization updates name or active flag
// @Summary Update organization
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Organization ID"
// @Param payload body service.UpdateOrganizationRequest true "Fields to update"
// @Success 200 {object} response.Response{data=model.Organization}
// @Failure 404 {object} response.Response
// @Router /api/organizations/{id} [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.UpdateOrganization(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}
