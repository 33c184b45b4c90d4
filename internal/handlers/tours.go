package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realty-marketplace/internal/apperr"
	"realty-marketplace/internal/booking"
	"realty-marketplace/internal/models"
)

// TourHandler exposes the tour scheduling operations.
type TourHandler struct {
	service *booking.Service
}

func NewTourHandler(service *booking.Service) *TourHandler {
	return &TourHandler{service: service}
}

// CheckAvailability handles GET /api/properties/:id/availability.
// start and end are RFC3339 timestamps.
func (h *TourHandler) CheckAvailability(c *gin.Context) {
	propertyID := c.Param("id")

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		respondError(c, apperr.Validation("start", "must be an RFC3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		respondError(c, apperr.Validation("end", "must be an RFC3339 timestamp"))
		return
	}

	available, err := h.service.CheckAvailability(propertyID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

type createTourRequest struct {
	PropertyID    string    `json:"property_id" binding:"required"`
	AgentID       string    `json:"agent_id" binding:"required"`
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
	Notes         string    `json:"notes"`
}

// CreateTour handles POST /api/tours. The requesting user comes from the
// token, not the body.
func (h *TourHandler) CreateTour(c *gin.Context) {
	var req createTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tour, err := h.service.CreateTour(booking.CreateTourRequest{
		PropertyID:    req.PropertyID,
		UserID:        c.GetString("user_id"),
		AgentID:       req.AgentID,
		ScheduledDate: req.ScheduledDate,
		EndTime:       req.EndTime,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tour)
}

type updateTourStatusRequest struct {
	Status models.TourStatus `json:"status" binding:"required"`
}

// UpdateTourStatus handles PUT /api/tours/:id/status.
func (h *TourHandler) UpdateTourStatus(c *gin.Context) {
	var req updateTourStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tour, err := h.service.UpdateTourStatus(c.Param("id"), req.Status, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tour)
}

// CancelTour handles POST /api/tours/:id/cancel.
func (h *TourHandler) CancelTour(c *gin.Context) {
	tour, err := h.service.CancelTour(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tour)
}
