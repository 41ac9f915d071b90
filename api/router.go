package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/sevabooking/config"
	"github.com/Domenick1991/sevabooking/internal/service/booking"
	"github.com/Domenick1991/sevabooking/internal/service/offerings"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the counter API under /api/v1.
func NewRouter(cfg config.HTTPConfig, log *zap.Logger, offeringSvc offerings.OfferingUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(log), RequestLogger(log))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", RateLimit(log, cfg.RatePerMinute, cfg.RateBurst))
	NewOfferingHandler(offeringSvc, bookingSvc, log).Register(v1.Group("/offerings"))
	NewBookingHandler(bookingSvc, log).Register(v1.Group("/bookings"))
	return router
}
