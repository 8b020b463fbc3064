package handler

import (
	"net/http"

	"backend/internal/hierarchy"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type KonfiHandler struct {
	konfiService service.KonfiService
	badgeService service.BadgeService
}

func NewKonfiHandler(konfiService service.KonfiService, badgeService service.BadgeService) *KonfiHandler {
	return &KonfiHandler{konfiService: konfiService, badgeService: badgeService}
}

func (h *KonfiHandler) RegisterRoutes(router *gin.RouterGroup) {
	jahrgaenge := router.Group("/api/jahrgaenge")
	{
		jahrgaenge.GET("", middleware.RequirePermission("admin.konfis.view"), h.ListJahrgaenge)
		jahrgaenge.POST("", middleware.RequirePermission("admin.konfis.manage"), h.CreateJahrgang)
		jahrgaenge.DELETE("/:id", middleware.RequirePermission("admin.konfis.manage"), h.DeleteJahrgang)
	}

	konfis := router.Group("/api/konfis")
	{
		konfis.GET("", middleware.RequirePermission("admin.konfis.view"), h.ListKonfis)
		konfis.GET("/:id", middleware.RequirePermission("admin.konfis.view"), h.GetKonfi)
		konfis.POST("/:id/activities", middleware.RequirePermission("admin.konfis.manage"), h.AwardActivity)
		konfis.POST("/:id/bonus", middleware.RequirePermission("admin.konfis.manage"), h.AwardBonus)
	}

	// Self-service routes for logged-in konfis
	self := router.Group("/api/konfi")
	self.Use(middleware.RequireRole(hierarchy.RoleKonfi))
	{
		self.GET("/profile", h.OwnProfile)
		self.GET("/badges", h.OwnBadges)
	}
}

// ListJahrgaenge returns the organization's cohorts
// @Summary List jahrgaenge
// @Tags konfis
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Jahrgang}
// @Router /api/jahrgaenge [get]
func (h *KonfiHandler) ListJahrgaenge(c *gin.Context) {
	rows, err := h.konfiService.ListJahrgaenge(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CreateJahrgang creates a cohort
// @Summary Create jahrgang
// @Tags konfis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateJahrgangRequest true "Jahrgang data"
// @Success 201 {object} response.Response{data=model.Jahrgang}
// @Failure 409 {object} response.Response
// @Router /api/jahrgaenge [post]
func (h *KonfiHandler) CreateJahrgang(c *gin.Context) {
	var req service.CreateJahrgangRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.konfiService.CreateJahrgang(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

// DeleteJahrgang deletes an empty cohort
// @Summary Delete jahrgang
// @Tags konfis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Jahrgang ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/jahrgaenge/{id} [delete]
func (h *KonfiHandler) DeleteJahrgang(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.konfiService.DeleteJahrgang(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Jahrgang deleted successfully"}))
}

// ListKonfis returns all konfis with their points and badge counts
// @Summary List konfis
// @Tags konfis
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.KonfiResponse}
// @Router /api/konfis [get]
func (h *KonfiHandler) ListKonfis(c *gin.Context) {
	rows, err := h.konfiService.ListKonfis(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// GetKonfi returns one konfi with activities, bonus points and badges
// @Summary Get konfi
// @Tags konfis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Konfi user ID"
// @Success 200 {object} response.Response{data=service.KonfiDetailResponse}
// @Failure 404 {object} response.Response
// @Router /api/konfis/{id} [get]
func (h *KonfiHandler) GetKonfi(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.konfiService.GetKonfi(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// AwardActivity grants an activity and its points to a konfi
// @Summary Award activity
// @Description Creates the grant, bumps the point bucket, evaluates badges and broadcasts the award, all in one transaction
// @Tags konfis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Konfi user ID"
// @Param payload body service.AwardActivityRequest true "Activity grant"
// @Success 200 {object} response.Response{data=service.AwardResult}
// @Failure 404 {object} response.Response
// @Router /api/konfis/{id}/activities [post]
func (h *KonfiHandler) AwardActivity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.AwardActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.konfiService.AwardActivity(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AwardBonus grants free-form bonus points to a konfi
// @Summary Award bonus points
// @Tags konfis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Konfi user ID"
// @Param payload body service.AwardBonusRequest true "Bonus grant"
// @Success 200 {object} response.Response{data=service.AwardResult}
// @Failure 404 {object} response.Response
// @Router /api/konfis/{id}/bonus [post]
func (h *KonfiHandler) AwardBonus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.AwardBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.konfiService.AwardBonus(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// OwnProfile returns the logged-in konfi's own standing
// @Summary Own konfi profile
// @Tags konfi-self
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.KonfiDetailResponse}
// @Router /api/konfi/profile [get]
func (h *KonfiHandler) OwnProfile(c *gin.Context) {
	actor := actorFromContext(c)
	detail, err := h.konfiService.GetKonfi(c.Request.Context(), actor, actor.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// OwnBadges lists badges as the konfi sees them, hidden ones only once earned
// @Summary Own badges
// @Tags konfi-self
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.KonfiBadgeView}
// @Router /api/konfi/badges [get]
func (h *KonfiHandler) OwnBadges(c *gin.Context) {
	views, err := h.badgeService.ListBadgesForKonfi(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, views))
}
