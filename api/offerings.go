package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/sevabooking/internal/service/booking"
	"github.com/Domenick1991/sevabooking/internal/service/offerings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OfferingHandler struct {
	service  offerings.OfferingUseCase
	bookings booking.BookingUseCase
	log      *zap.Logger
}

type availabilityRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
}

func NewOfferingHandler(service offerings.OfferingUseCase, bookings booking.BookingUseCase, log *zap.Logger) *OfferingHandler {
	return &OfferingHandler{service: service, bookings: bookings, log: log}
}

func (h *OfferingHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id", h.get)
	router.GET("/:id/slots", h.slots)
	router.GET("/:id/calendar", h.calendar)
	router.POST("/:id/availability", h.availability)
}

func (h *OfferingHandler) get(c *gin.Context) {
	offering, err := h.service.GetOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, offering)
}

func (h *OfferingHandler) slots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "date is required"})
		return
	}
	slots, err := h.service.ListSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

func (h *OfferingHandler) calendar(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "from is required"})
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid days"})
		return
	}
	calendar, err := h.service.Calendar(c.Request.Context(), c.Param("id"), from, days)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, calendar)
}

// availability re-validates a picked slot without booking it.
func (h *OfferingHandler) availability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	decision, err := h.bookings.CheckAvailability(c.Request.Context(), c.Param("id"), req.Date, req.StartTime)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
