package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	paymentapp "carmarket/internal/app/handlers/payment"
)

type PaymentHandler struct {
	Commands commands.Bus
}

type createPaymentRequest struct {
	BookingID string `json:"bookingId"`
	Method    string `json:"method"`
}

// Create charges a booking. The first successful charge answers 201; a
// repeat for the same booking answers 200 with the stored payment.
func (h PaymentHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := paymentapp.PayBookingCommand{
		CommandID:       uuid.NewString(),
		BookingID:       req.BookingID,
		PayerID:         user.ID,
		Method:          req.Method,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentapp.PayBookingCommand, *dto.PaymentReceipt](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if result != nil && result.AlreadyProcessed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

var _ PaymentHTTP = PaymentHandler{}
