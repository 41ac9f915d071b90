package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
	"github.com/Domenick1991/sevabooking/internal/service/booking"
	"github.com/Domenick1991/sevabooking/internal/seva"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     *zap.Logger
}

type confirmBookingRequest struct {
	OfferingID    string               `json:"offering_id" binding:"required"`
	Date          string               `json:"date" binding:"required"`
	StartTime     string               `json:"start_time" binding:"required"`
	Devotee       domain.Devotee       `json:"devotee"`
	PaymentMode   domain.PaymentMode   `json:"payment_mode" binding:"required"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	OperatorID    string               `json:"operator_id"`
}

type bookingResponse struct {
	ID            string         `json:"id"`
	Token         string         `json:"token"`
	Status        string         `json:"status"`
	OfferingID    string         `json:"offering_id"`
	Date          string         `json:"date"`
	SlotStartTime string         `json:"slot_start_time"`
	SlotEndTime   string         `json:"slot_end_time"`
	Devotee       domain.Devotee `json:"devotee"`
	Amount        string         `json:"amount"`
	PaymentMode   string         `json:"payment_mode"`
	PaymentStatus string         `json:"payment_status"`
	BookedAt      string         `json:"booked_at"`
}

type rejectionResponse struct {
	CanBook bool         `json:"can_book"`
	Reason  string       `json:"reason"`
	Slot    *domain.Slot `json:"slot,omitempty"`
}

func toBookingResponse(b *domain.SevaBooking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		Token:         b.TokenNumber,
		Status:        string(b.Status),
		OfferingID:    b.OfferingID,
		Date:          b.Date,
		SlotStartTime: b.SlotStartTime,
		SlotEndTime:   b.SlotEndTime,
		Devotee:       b.Devotee,
		Amount:        b.Amount.StringFixed(2),
		PaymentMode:   string(b.PaymentMode),
		PaymentStatus: string(b.PaymentStatus),
		BookedAt:      b.BookedAt.Format(time.RFC3339),
	}
}

func rejection(d seva.Decision) rejectionResponse {
	return rejectionResponse{CanBook: false, Reason: d.Reason, Slot: d.Slot}
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.confirm)
	router.GET("/:token", h.get)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/complete", h.complete)
	router.POST("/:id/no-show", h.noShow)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.ConfirmBooking(c.Request.Context(), booking.ConfirmBookingInput{
		OfferingID:    req.OfferingID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		Devotee:       req.Devotee,
		PaymentMode:   req.PaymentMode,
		PaymentStatus: req.PaymentStatus,
		OperatorID:    req.OperatorID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if !res.Decision.CanBook {
		c.JSON(http.StatusConflict, rejection(res.Decision))
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(res.Booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.transition(c, h.service.CancelBooking)
}

func (h *BookingHandler) complete(c *gin.Context) {
	h.transition(c, h.service.CompleteBooking)
}

func (h *BookingHandler) noShow(c *gin.Context) {
	h.transition(c, h.service.MarkNoShow)
}

func (h *BookingHandler) transition(c *gin.Context, apply func(ctx context.Context, id string) (*domain.SevaBooking, error)) {
	b, err := apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}
