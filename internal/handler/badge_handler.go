package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BadgeHandler struct {
	badgeService service.BadgeService
}

func NewBadgeHandler(badgeService service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService}
}

func (h *BadgeHandler) RegisterRoutes(router *gin.RouterGroup) {
	badges := router.Group("/api/badges")
	{
		badges.GET("", middleware.RequirePermission("admin.badges.view"), h.ListBadges)
		badges.POST("", middleware.RequirePermission("admin.badges.manage"), h.CreateBadge)
		badges.PUT("/:id", middleware.RequirePermission("admin.badges.manage"), h.UpdateBadge)
		badges.DELETE("/:id", middleware.RequirePermission("admin.badges.manage"), h.DeleteBadge)
	}
}

// ListBadges returns all badges including hidden ones
func (h *BadgeHandler) ListBadges(c *gin.Context) {
	rows, err := h.badgeService.ListBadges(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CreateBadge creates a badge with its award criteria
func (h *BadgeHandler) CreateBadge(c *gin.Context) {
	var req service.CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.badgeService.CreateBadge(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

// UpdateBadge updates badge metadata or criteria
func (h *BadgeHandler) UpdateBadge(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.badgeService.UpdateBadge(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// DeleteBadge removes a never-awarded badge
func (h *BadgeHandler) DeleteBadge(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.badgeService.DeleteBadge(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Badge deleted successfully"}))
}
