package ginserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carmarket/internal/app/commands"
	availabilityapp "carmarket/internal/app/handlers/availability"
	bookingapp "carmarket/internal/app/handlers/booking"
	carsapp "carmarket/internal/app/handlers/cars"
	favoritesapp "carmarket/internal/app/handlers/favorites"
	paymentapp "carmarket/internal/app/handlers/payment"
	reviewsapp "carmarket/internal/app/handlers/reviews"
	"carmarket/internal/app/middleware"
	"carmarket/internal/app/queries"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/infra/config"
	"carmarket/internal/infra/obs"
	"carmarket/internal/infra/storage/memory"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
		Turnover:   daterange.SameDayTurnoverBlocked,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		UoWFactory: factory,
		Outbox:     box,
	})
	commands.RegisterHandler(commandBus, paymentapp.PayBookingCommand{}.Key(), &paymentapp.PayBookingHandler{
		UoWFactory: factory,
		Outbox:     box,
	})
	commands.RegisterHandler(commandBus, carsapp.CreateCarCommand{}.Key(), &carsapp.CreateCarHandler{UoWFactory: factory})
	commands.RegisterHandler(commandBus, carsapp.UpdateCarCommand{}.Key(), &carsapp.UpdateCarHandler{UoWFactory: factory})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{UoWFactory: factory})
	commands.RegisterHandler(commandBus, favoritesapp.ToggleFavoriteCommand{}.Key(), &favoritesapp.ToggleFavoriteHandler{UoWFactory: factory})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, carsapp.SearchCarsQuery{}.Key(), &carsapp.SearchCarsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, carsapp.GetCarQuery{}.Key(), &carsapp.GetCarHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, availabilityapp.GetBookedDatesQuery{}.Key(), &availabilityapp.GetBookedDatesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListReviewsQuery{}.Key(), &reviewsapp.ListReviewsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, favoritesapp.ListFavoritesQuery{}.Key(), &favoritesapp.ListFavoritesHandler{UoWFactory: factory})

	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(memory.NewIdempotencyStore(0), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	queryPipeline := middleware.ChainQueries(queryBus)

	auth := AuthMiddleware{
		Resolver: StaticIdentityResolver{Principals: map[string]Principal{
			"tok-renter": {ID: "renter-1", Name: "Renter"},
			"tok-host":   {ID: "host-1", Name: "Host"},
			"tok-admin":  {ID: "admin-1", Name: "Admin", Roles: []string{AdminRole}},
		}},
		Logger: logger,
	}

	server := NewServer(config.Config{Env: "test", HTTPAddr: ":0"}, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error { return nil },
	}, Handlers{
		Car:            CarHandler{Commands: commandPipeline, Queries: queryPipeline},
		Availability:   AvailabilityHandler{Queries: queryPipeline},
		Booking:        BookingHandler{Commands: commandPipeline, Queries: queryPipeline},
		Payment:        PaymentHandler{Commands: commandPipeline},
		Review:         ReviewHandler{Commands: commandPipeline, Queries: queryPipeline},
		Me:             MeHandler{Commands: commandPipeline, Queries: queryPipeline},
		AuthMiddleware: auth.Handle,
	})
	return server.Handler
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decoding response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestHealthEndpoints(t *testing.T) {
	handler := newTestServer(t)
	rec, _ := doJSON(t, handler, http.MethodGet, "/livez", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("livez = %d, want 200", rec.Code)
	}
	rec, _ = doJSON(t, handler, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d, want 200", rec.Code)
	}
}

func TestBookingFlowOverHTTP(t *testing.T) {
	handler := newTestServer(t)

	rec, car := doJSON(t, handler, http.MethodPost, "/api/v1/cars", "tok-host",
		`{"title":"Honda City","make":"Honda","model":"City","year":2023,"city":"Chennai","daily_rate_paise":100000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create car = %d: %v", rec.Code, car)
	}
	carID, _ := car["id"].(string)
	if carID == "" {
		t.Fatalf("car id missing in %v", car)
	}

	rec, _ = doJSON(t, handler, http.MethodPut, "/api/v1/cars/"+carID, "tok-host", `{"status":"active"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate car = %d", rec.Code)
	}

	// Public catalog sees the active listing without a token.
	rec, catalog := doJSON(t, handler, http.MethodGet, "/api/v1/cars", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog = %d", rec.Code)
	}
	if total, _ := catalog["total"].(float64); total != 1 {
		t.Fatalf("catalog total = %v, want 1", catalog["total"])
	}

	rec, booking := doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "tok-renter",
		`{"carId":"`+carID+`","startDate":"2027-06-10","endDate":"2027-06-12"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create booking = %d: %v", rec.Code, booking)
	}
	bookingID, _ := booking["id"].(string)
	pricing, _ := booking["pricing"].(map[string]any)
	totalEntry, _ := pricing["total_amount"].(map[string]any)
	if amount, _ := totalEntry["amount"].(float64); amount != 442500 {
		t.Fatalf("booking total = %v, want 442500", totalEntry["amount"])
	}

	// The held range shows up publicly.
	rec, dates := doJSON(t, handler, http.MethodGet, "/api/v1/cars/"+carID+"/booked-dates", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("booked dates = %d", rec.Code)
	}
	if days, _ := dates["booked_dates"].([]any); len(days) != 3 {
		t.Fatalf("booked dates = %v, want 3 days", dates["booked_dates"])
	}

	// Overlapping request conflicts.
	rec, _ = doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "tok-renter",
		`{"carId":"`+carID+`","startDate":"2027-06-12","endDate":"2027-06-14"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlapping booking = %d, want 409", rec.Code)
	}

	// First payment creates the ledger row, the repeat replays it.
	rec, payment := doJSON(t, handler, http.MethodPost, "/api/v1/payments", "tok-renter",
		`{"bookingId":"`+bookingID+`","method":"upi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment = %d: %v", rec.Code, payment)
	}
	rec, replay := doJSON(t, handler, http.MethodPost, "/api/v1/payments", "tok-renter",
		`{"bookingId":"`+bookingID+`","method":"upi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat payment = %d, want 200", rec.Code)
	}
	if processed, _ := replay["already_processed"].(bool); !processed {
		t.Fatalf("repeat payment body = %v, want already_processed", replay)
	}

	// Payment auto-confirmed the booking, so the host can start the trip.
	rec, updated := doJSON(t, handler, http.MethodPut, "/api/v1/bookings/"+bookingID, "tok-host", `{"status":"ongoing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start trip = %d: %v", rec.Code, updated)
	}
	if updated["status"] != "ongoing" {
		t.Fatalf("status = %v, want ongoing", updated["status"])
	}

	// Complete and review.
	rec, _ = doJSON(t, handler, http.MethodPut, "/api/v1/bookings/"+bookingID, "tok-host", `{"status":"completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete trip = %d", rec.Code)
	}
	rec, review := doJSON(t, handler, http.MethodPost, "/api/v1/cars/"+carID+"/reviews", "tok-renter",
		`{"bookingId":"`+bookingID+`","rating":5,"comment":"Great car"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("review = %d: %v", rec.Code, review)
	}
	rec, reviews := doJSON(t, handler, http.MethodGet, "/api/v1/cars/"+carID+"/reviews", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list reviews = %d", rec.Code)
	}
	rating, _ := reviews["rating"].(map[string]any)
	if avg, _ := rating["average"].(float64); avg != 5 {
		t.Fatalf("average rating = %v, want 5", rating["average"])
	}
}

func TestWriteEndpointsRequireAuth(t *testing.T) {
	handler := newTestServer(t)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/v1/cars", `{"title":"Car","daily_rate_paise":1000}`},
		{http.MethodPost, "/api/v1/bookings", `{"carId":"c","startDate":"2027-06-10","endDate":"2027-06-11"}`},
		{http.MethodPost, "/api/v1/payments", `{"bookingId":"b"}`},
		{http.MethodGet, "/api/v1/me/bookings", ""},
		{http.MethodPut, "/api/v1/me/favorites/car-1", ""},
	}
	for _, tc := range cases {
		rec, _ := doJSON(t, handler, tc.method, tc.path, "", tc.body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s = %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	handler := newTestServer(t)

	rec, body := doJSON(t, handler, http.MethodGet, "/api/v1/cars/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown car = %d, want 404", rec.Code)
	}
	if body["code"] != "not_found" {
		t.Fatalf("code = %v, want not_found", body["code"])
	}

	rec, body = doJSON(t, handler, http.MethodPost, "/api/v1/bookings", "tok-renter", `{"carId":"c1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing dates = %d, want 400", rec.Code)
	}
	if body["code"] != "missing_field" {
		t.Fatalf("code = %v, want missing_field", body["code"])
	}

	// Unknown car never 404s on booked-dates; it simply has none.
	rec, dates := doJSON(t, handler, http.MethodGet, "/api/v1/cars/missing/booked-dates", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("booked dates for unknown car = %d, want 200", rec.Code)
	}
	if days, _ := dates["booked_dates"].([]any); len(days) != 0 {
		t.Fatalf("booked dates = %v, want empty", dates["booked_dates"])
	}
}

func TestFavoritesOverHTTP(t *testing.T) {
	handler := newTestServer(t)

	rec, car := doJSON(t, handler, http.MethodPost, "/api/v1/cars", "tok-host",
		`{"title":"Kia Seltos","daily_rate_paise":110000,"city":"Delhi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create car = %d", rec.Code)
	}
	carID, _ := car["id"].(string)

	rec, state := doJSON(t, handler, http.MethodPut, "/api/v1/me/favorites/"+carID, "tok-renter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle favorite = %d", rec.Code)
	}
	if favored, _ := state["favored"].(bool); !favored {
		t.Fatalf("state = %v, want favored", state)
	}

	rec, list := doJSON(t, handler, http.MethodGet, "/api/v1/me/favorites", "tok-renter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list favorites = %d", rec.Code)
	}
	if items, _ := list["items"].([]any); len(items) != 1 {
		t.Fatalf("favorites = %v, want 1 item", list["items"])
	}

	rec, state = doJSON(t, handler, http.MethodPut, "/api/v1/me/favorites/"+carID, "tok-renter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("second toggle = %d", rec.Code)
	}
	if favored, _ := state["favored"].(bool); favored {
		t.Fatalf("state = %v, want unfavored after second toggle", state)
	}
}
