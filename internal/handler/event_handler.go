package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService service.EventService
}

func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) RegisterRoutes(router *gin.RouterGroup) {
	events := router.Group("/api/events")
	{
		events.GET("", middleware.RequirePermission("admin.events.view"), h.ListEvents)
		events.GET("/:id", middleware.RequirePermission("admin.events.view"), h.GetEvent)
		events.GET("/:id/bookings", middleware.RequirePermission("admin.events.view"), h.ListBookings)
		events.POST("", middleware.RequirePermission("admin.events.manage"), h.CreateEvent)
		events.PUT("/:id", middleware.RequirePermission("admin.events.manage"), h.UpdateEvent)
		events.DELETE("/:id", middleware.RequirePermission("admin.events.manage"), h.DeleteEvent)

		// Booking is open to any authenticated member of the organization.
		events.POST("/:id/book", middleware.RequireAuth(), h.Book)
		events.DELETE("/:id/bookings", middleware.RequireAuth(), h.CancelBooking)
	}
}

// ListEvents returns all events with booking counts
func (h *EventHandler) ListEvents(c *gin.Context) {
	rows, err := h.eventService.ListEvents(c.Request.Context(), actorFromContext(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// GetEvent returns one event with booking counts
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	row, err := h.eventService.GetEvent(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// ListBookings returns all bookings of an event
func (h *EventHandler) ListBookings(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rows, err := h.eventService.ListBookings(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CreateEvent creates a bookable event
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.eventService.CreateEvent(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, row))
}

// UpdateEvent updates event data
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	row, err := h.eventService.UpdateEvent(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, row))
}

// DeleteEvent removes an event without active bookings
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Event deleted successfully"}))
}

// Book places the caller on the event, waitlisting when full
// @Summary Book event
// @Description Enforces the registration window and capacity; a full event yields a waitlist booking
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 201 {object} response.Response{data=model.EventBooking}
// @Failure 409 {object} response.Response
// @Router /api/events/{id}/book [post]
func (h *EventHandler) Book(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.eventService.Book(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// CancelBooking cancels the caller's booking and promotes from the waitlist
// @Summary Cancel event booking
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/events/{id}/bookings [delete]
func (h *EventHandler) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.CancelBooking(c.Request.Context(), actorFromContext(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Booking cancelled successfully"}))
}
