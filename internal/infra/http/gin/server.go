package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"carmarket/internal/infra/config"
	"carmarket/internal/infra/obs"
)

type CarHTTP interface {
	Catalog(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
}

type AvailabilityHTTP interface {
	BookedDates(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
	HostBookings(c *gin.Context)
}

type PaymentHTTP interface {
	Create(c *gin.Context)
}

type ReviewHTTP interface {
	Submit(c *gin.Context)
	List(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	ToggleFavorite(c *gin.Context)
	ListFavorites(c *gin.Context)
}

type Handlers struct {
	Car            CarHTTP
	Availability   AvailabilityHTTP
	Booking        BookingHTTP
	Payment        PaymentHTTP
	Review         ReviewHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Car != nil {
		api.GET("/cars", h.Car.Catalog)
		api.POST("/cars", h.Car.Create)
		api.GET("/cars/:id", h.Car.Get)
		api.PUT("/cars/:id", h.Car.Update)
	}
	if h.Availability != nil {
		api.GET("/cars/:id/booked-dates", h.Availability.BookedDates)
	}
	if h.Review != nil {
		api.POST("/cars/:id/reviews", h.Review.Submit)
		api.GET("/cars/:id/reviews", h.Review.List)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.PUT("/bookings/:id", h.Booking.UpdateStatus)
		api.GET("/host/bookings", h.Booking.HostBookings)
	}
	if h.Payment != nil {
		api.POST("/payments", h.Payment.Create)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		meGroup.PUT("/favorites/:carId", h.Me.ToggleFavorite)
		meGroup.GET("/favorites", h.Me.ListFavorites)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
