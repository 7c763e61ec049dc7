package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	bookingapp "carmarket/internal/app/handlers/booking"
	"carmarket/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	CarID      string `json:"carId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	PickupTime string `json:"pickupTime"`
	ReturnTime string `json:"returnTime"`

	Pricing *pricingOverrideRequest `json:"pricing"`
}

type pricingOverrideRequest struct {
	DailyRatePaise    *int64 `json:"daily_rate_paise"`
	TotalDays         *int   `json:"total_days"`
	SubtotalPaise     *int64 `json:"subtotal_paise"`
	ServiceFeePaise   *int64 `json:"service_fee_paise"`
	InsuranceFeePaise *int64 `json:"insurance_fee_paise"`
	GSTPaise          *int64 `json:"gst_paise"`
	DiscountPaise     *int64 `json:"discount_paise"`
	TotalPaise        *int64 `json:"total_paise"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       uuid.NewString(),
		CarID:           req.CarID,
		RenterID:        user.ID,
		ActorIsAdmin:    user.IsAdmin(),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		PickupTime:      req.PickupTime,
		ReturnTime:      req.ReturnTime,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	if req.Pricing != nil {
		cmd.Overrides = &bookingapp.PricingOverrideInput{
			DailyRatePaise:    req.Pricing.DailyRatePaise,
			TotalDays:         req.Pricing.TotalDays,
			SubtotalPaise:     req.Pricing.SubtotalPaise,
			ServiceFeePaise:   req.Pricing.ServiceFeePaise,
			InsuranceFeePaise: req.Pricing.InsuranceFeePaise,
			GSTPaise:          req.Pricing.GSTPaise,
			DiscountPaise:     req.Pricing.DiscountPaise,
			TotalPaise:        req.Pricing.TotalPaise,
		}
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.UpdateBookingStatusCommand{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
		NewStatus: req.Status,
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) HostBookings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListHostBookingsQuery{
		HostID: user.ID,
		Status: c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
