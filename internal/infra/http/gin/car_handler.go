package ginserver

import (
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carmarket/internal/app/commands"
	"carmarket/internal/app/dto"
	carsapp "carmarket/internal/app/handlers/cars"
	"carmarket/internal/app/queries"
)

// CarHandler wires the catalog and host listing commands to HTTP.
type CarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Catalog responds with a filtered collection of cars. Unauthenticated
// callers only see active listings.
func (h CarHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "car handler unavailable"})
		return
	}
	query := carsapp.SearchCarsQuery{
		City:          c.Query("city"),
		HostID:        c.Query("host_id"),
		Status:        c.Query("status"),
		OnlyActive:    true,
		PriceMinPaise: parseInt64(c.Query("price_min")),
		PriceMaxPaise: parseInt64(c.Query("price_max")),
		Sort:          c.Query("sort"),
		Limit:         parseInt(c.Query("limit")),
		Offset:        parseInt(c.Query("offset")),
	}
	// Hosts and admins may browse their full inventory, not just live cars.
	if p, authed := currentPrincipal(c); authed && (p.IsAdmin() || (p.ID != "" && query.HostID == p.ID)) {
		query.OnlyActive = false
	}
	result, err := queries.Ask[carsapp.SearchCarsQuery, dto.CarCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createCarRequest struct {
	Title          string `json:"title"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Year           int    `json:"year"`
	City           string `json:"city"`
	DailyRatePaise int64  `json:"daily_rate_paise"`
	Currency       string `json:"currency"`
}

func (h CarHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := carsapp.CreateCarCommand{
		CommandID:      uuid.NewString(),
		HostID:         user.ID,
		Title:          req.Title,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		City:           req.City,
		DailyRatePaise: req.DailyRatePaise,
		Currency:       req.Currency,
	}
	result, err := commands.Dispatch[carsapp.CreateCarCommand, *dto.CarDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h CarHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "car handler unavailable"})
		return
	}
	query := carsapp.GetCarQuery{CarID: c.Param("id")}
	result, err := queries.Ask[carsapp.GetCarQuery, *dto.CarDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateCarRequest struct {
	Details *struct {
		Title string `json:"title"`
		Make  string `json:"make"`
		Model string `json:"model"`
		Year  int    `json:"year"`
		City  string `json:"city"`
	} `json:"details"`
	DailyRatePaise *int64 `json:"daily_rate_paise"`
	Status         string `json:"status"`
}

func (h CarHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req updateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := carsapp.UpdateCarCommand{
		CarID:          c.Param("id"),
		ActorID:        user.ID,
		ActorIsAdmin:   user.IsAdmin(),
		DailyRatePaise: req.DailyRatePaise,
		Status:         req.Status,
	}
	if req.Details != nil {
		cmd.Details = &carsapp.CarDetailsInput{
			Title: req.Details.Title,
			Make:  req.Details.Make,
			Model: req.Details.Model,
			Year:  req.Details.Year,
			City:  req.Details.City,
		}
	}
	result, err := commands.Dispatch[carsapp.UpdateCarCommand, *dto.CarDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CarHTTP = CarHandler{}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}
