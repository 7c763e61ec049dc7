package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	reviewsapp "carmarket/internal/app/handlers/reviews"
	"carmarket/internal/app/queries"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type submitReviewRequest struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		CommandID: uuid.NewString(),
		CarID:     c.Param("id"),
		BookingID: req.BookingID,
		AuthorID:  user.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	result, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, *dto.ReviewView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := reviewsapp.ListReviewsQuery{CarID: c.Param("id")}
	result, err := queries.Ask[reviewsapp.ListReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewHandler{}
