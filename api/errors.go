package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/sevabooking/internal/repository"
	"github.com/Domenick1991/sevabooking/internal/service/booking"
	"github.com/Domenick1991/sevabooking/internal/service/offerings"
	"github.com/Domenick1991/sevabooking/internal/seva"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError maps service errors onto HTTP statuses. Internal detail stays in the log.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	var (
		conflict *booking.ConflictError
		cfgErr   *seva.ConfigurationError
	)
	switch {
	case errors.Is(err, booking.ErrInvalidInput), errors.Is(err, offerings.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, repository.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: "booking is no longer in booked status"})
	case errors.As(err, &conflict):
		log.Warn("booking conflict", zap.Error(err))
		c.JSON(http.StatusConflict, errorResponse{
			Error:     "slot was taken by another counter, please choose again",
			Retryable: conflict.Retryable(),
		})
	case errors.As(err, &cfgErr):
		log.Error("offering misconfigured",
			zap.String("offering_id", cfgErr.OfferingID),
			zap.String("field", cfgErr.Field),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "offering is misconfigured"})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
