package handler

import (
	"net/http"

	"backend/internal/hierarchy"
	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	activities := router.Group("/api/activities")
	{
		activities.GET("", middleware.RequirePermission("admin.activities.view"), h.ListActivities)
		activities.POST("", middleware.RequirePermission("admin.activities.manage"), h.CreateActivity)
		activities.PUT("/:id", middleware.RequirePermission("admin.activities.manage"), h.UpdateActivity)
		activities.DELETE("/:id", middleware.RequirePermission("admin.activities.manage"), h.DeleteActivity)
	}

	requests := router.Group("/api/activity-requests")
	{
		requests.GET("", middleware.RequirePermission("admin.requests.view"), h.ListRequests)
		requests.PUT("/:id/approve", middleware.RequirePermission("admin.requests.approve"), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequirePermission("admin.requests.approve"), h.RejectRequest)

		// Konfi self-service: submit and track own requests
		requests.POST("", middleware.RequireRole(hierarchy.RoleKonfi), h.SubmitRequest)
		requests.GET("/mine", middleware.RequireRole(hierarchy.RoleKonfi), h.ListOwnRequests)
	}
}

// ListActivities returns the activity catalog
// @Summary List activities
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.Activity}
// @Router /api/activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	rows, err := h.activityService.ListActivities(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CreateActivity adds a catalog entry
// @Summary Create activity
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateActivityRequest true "Activity data"
// @Success 201 {object} response.Response{data=model.Activity}
// @Router /api/activities [post]
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.activityService.CreateActivity(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

// UpdateActivity updates a catalog entry
// @Summary Update activity
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Param payload body service.UpdateActivityRequest true "Fields to update"
// @Success 200 {object} response.Response{data=model.Activity}
// @Failure 404 {object} response.Response
// @Router /api/activities/{id} [put]
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.activityService.UpdateActivity(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// DeleteActivity removes a never-awarded catalog entry
// @Summary Delete activity
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/activities/{id} [delete]
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.activityService.DeleteActivity(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Activity deleted successfully"}))
}

// ListRequests returns activity requests, optionally filtered by status
// @Summary List activity requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Response{data=[]model.ActivityRequest}
// @Router /api/activity-requests [get]
func (h *ActivityHandler) ListRequests(c *gin.Context) {
	rows, err := h.activityService.ListRequests(c.Request.Context(), actorFromContext(c), c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// ApproveRequest approves a pending request and awards the points
// @Summary Approve activity request
// @Description Approval and the resulting point award share one transaction; a failed award leaves the request pending
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Response{data=model.ActivityRequest}
// @Failure 409 {object} response.Response
// @Router /api/activity-requests/{id}/approve [put]
func (h *ActivityHandler) ApproveRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	row, err := h.activityService.ApproveRequest(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// RejectRequest rejects a pending request with a mandatory comment
// @Summary Reject activity request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param payload body service.RejectActivityRequest true "Rejection comment"
// @Success 200 {object} response.Response{data=model.ActivityRequest}
// @Failure 409 {object} response.Response
// @Router /api/activity-requests/{id}/reject [put]
func (h *ActivityHandler) RejectRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.RejectActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.activityService.RejectRequest(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// ListOwnRequests returns the logged-in konfi's own requests
// @Summary Own activity requests
// @Tags konfi-self
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]model.ActivityRequest}
// @Router /api/activity-requests/mine [get]
func (h *ActivityHandler) ListOwnRequests(c *gin.Context) {
	rows, err := h.activityService.ListOwnRequests(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// SubmitRequest files a new pending activity request
// @Summary Submit activity request
// @Tags konfi-self
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SubmitActivityRequest true "Request data"
// @Success 201 {object} response.Response{data=model.ActivityRequest}
// @Failure 404 {object} response.Response
// @Router /api/activity-requests [post]
func (h *ActivityHandler) SubmitRequest(c *gin.Context) {
	var req service.SubmitActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.activityService.SubmitRequest(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}
