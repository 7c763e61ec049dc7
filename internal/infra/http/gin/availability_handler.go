package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carmarket/internal/app/dto"
	availabilityapp "carmarket/internal/app/handlers/availability"
	"carmarket/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

// BookedDates serves the public availability view for a car. It never
// 404s: an unknown car simply has no booked dates.
func (h AvailabilityHandler) BookedDates(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	query := availabilityapp.GetBookedDatesQuery{CarID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetBookedDatesQuery, dto.BookedDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
