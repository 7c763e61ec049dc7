package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	bookingapp "carmarket/internal/app/handlers/booking"
	favoritesapp "carmarket/internal/app/handlers/favorites"
	"carmarket/internal/app/queries"
)

type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h MeHandler) ListBookings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListRenterBookingsQuery{RenterID: user.ID}
	result, err := queries.Ask[bookingapp.ListRenterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ToggleFavorite(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := favoritesapp.ToggleFavoriteCommand{
		UserID: user.ID,
		CarID:  c.Param("carId"),
	}
	result, err := commands.Dispatch[favoritesapp.ToggleFavoriteCommand, *dto.FavoriteState](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ListFavorites(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := favoritesapp.ListFavoritesQuery{UserID: user.ID}
	result, err := queries.Ask[favoritesapp.ListFavoritesQuery, dto.CarCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
