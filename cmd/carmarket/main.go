package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"carmarket/internal/app/commands"
	availabilityapp "carmarket/internal/app/handlers/availability"
	bookingapp "carmarket/internal/app/handlers/booking"
	carsapp "carmarket/internal/app/handlers/cars"
	favoritesapp "carmarket/internal/app/handlers/favorites"
	paymentapp "carmarket/internal/app/handlers/payment"
	reviewsapp "carmarket/internal/app/handlers/reviews"
	"carmarket/internal/app/middleware"
	appoutbox "carmarket/internal/app/outbox"
	"carmarket/internal/app/queries"
	"carmarket/internal/app/uow"
	"carmarket/internal/domain/shared/daterange"
	"carmarket/internal/infra/broker/kafka"
	"carmarket/internal/infra/config"
	mongodb "carmarket/internal/infra/db/mongo"
	ginserver "carmarket/internal/infra/http/gin"
	"carmarket/internal/infra/obs"
	infraoutbox "carmarket/internal/infra/outbox"
	"carmarket/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	app := buildApplication(cfg, store, logger)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: store.ready,
	}, app)

	workerDone := startOutboxWorker(ctx, cfg, store, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", store.kind)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	if workerDone != nil {
		<-workerDone
	}
	logger.Info("HTTP server stopped")
}

// storage bundles the persistence choice made at startup: Mongo when a
// URI is configured, in-memory otherwise.
type storage struct {
	kind         string
	uowFactory   uow.UoWFactory
	idempotency  middleware.IdempotencyStore
	outbox       appoutbox.Outbox
	workerSource infraoutbox.Source
	ready        func() error
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.MongoURI == "" {
		box := memory.NewOutbox()
		return storage{
			kind:         "memory",
			uowFactory:   memory.NewFactory(),
			idempotency:  memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			outbox:       box,
			workerSource: infraoutbox.NewMemorySource(box),
			ready:        func() error { return nil },
		}, nil
	}

	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storage{}, err
	}
	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongodb.EnsureIndexes(indexCtx, client.DB, cfg.IdempotencyTTL); err != nil {
		return storage{}, err
	}
	logger.Info("mongo indexes ensured", "db", cfg.MongoDB)

	outboxStore := infraoutbox.NewStore(client.DB)
	return storage{
		kind:         "mongo",
		uowFactory:   mongodb.NewFactory(client.DB),
		idempotency:  mongodb.NewIdempotencyStore(client.DB),
		outbox:       outboxStore,
		workerSource: outboxStore,
		ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		},
	}, nil
}

func buildApplication(cfg config.Config, store storage, logger *slog.Logger) ginserver.Handlers {
	turnover := daterange.SameDayTurnoverBlocked
	if cfg.SameDayTurnover {
		turnover = daterange.SameDayTurnoverAllowed
	}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: store.uowFactory,
		Outbox:     store.outbox,
		Encoder:    encoder,
		Turnover:   turnover,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		UoWFactory: store.uowFactory,
		Outbox:     store.outbox,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, paymentapp.PayBookingCommand{}.Key(), &paymentapp.PayBookingHandler{
		UoWFactory: store.uowFactory,
		Outbox:     store.outbox,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, carsapp.CreateCarCommand{}.Key(), &carsapp.CreateCarHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, carsapp.UpdateCarCommand{}.Key(), &carsapp.UpdateCarHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, favoritesapp.ToggleFavoriteCommand{}.Key(), &favoritesapp.ToggleFavoriteHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, carsapp.SearchCarsQuery{}.Key(), &carsapp.SearchCarsHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, carsapp.GetCarQuery{}.Key(), &carsapp.GetCarHandler{
		UoWFactory: store.uowFactory,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetBookedDatesQuery{}.Key(), &availabilityapp.GetBookedDatesHandler{
		UoWFactory: store.uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, reviewsapp.ListReviewsQuery{}.Key(), &reviewsapp.ListReviewsHandler{
		UoWFactory: store.uowFactory,
	})
	queries.RegisterHandler(queryBus, favoritesapp.ListFavoritesQuery{}.Key(), &favoritesapp.ListFavoritesHandler{
		UoWFactory: store.uowFactory,
		Logger:     logger,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.uowFactory, nil),
		middleware.OutboxFlush(store.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{
		Resolver: ginserver.StaticIdentityResolver{Principals: loadPrincipals(cfg.Env)},
		Logger:   logger,
	}

	return ginserver.Handlers{
		Car: ginserver.CarHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Availability: ginserver.AvailabilityHandler{
			Queries: queryBusWithMiddleware,
		},
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Payment: ginserver.PaymentHandler{
			Commands: commandBusWithMiddleware,
		},
		Review: ginserver.ReviewHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Me: ginserver.MeHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		AuthMiddleware: authMW.Handle,
	}
}

func startOutboxWorker(ctx context.Context, cfg config.Config, store storage, logger *slog.Logger) <-chan struct{} {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not configured, outbox worker disabled")
		return nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		return nil
	}
	worker := &infraoutbox.Worker{
		Source:      store.workerSource,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		AppSource:   "app://carmarket",
		Backoff:     cfg.RetryBackoff,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer producer.Close()
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()
	return done
}

// loadPrincipals parses AUTH_TOKENS ("token=user[:role];...") into the
// static resolver table. Dev gets a couple of well-known tokens so the
// API is usable out of the box.
func loadPrincipals(env string) map[string]ginserver.Principal {
	principals := make(map[string]ginserver.Principal)
	raw := os.Getenv("AUTH_TOKENS")
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, spec, ok := strings.Cut(entry, "=")
		if !ok || token == "" || spec == "" {
			continue
		}
		id, role, _ := strings.Cut(spec, ":")
		p := ginserver.Principal{ID: id, Name: id}
		if role != "" {
			p.Roles = []string{role}
		}
		principals[token] = p
	}
	if len(principals) == 0 && env == "dev" {
		principals["dev-renter"] = ginserver.Principal{ID: "renter-1", Name: "Dev Renter"}
		principals["dev-host"] = ginserver.Principal{ID: "host-1", Name: "Dev Host"}
		principals["dev-admin"] = ginserver.Principal{ID: "admin-1", Name: "Dev Admin", Roles: []string{ginserver.AdminRole}}
	}
	return principals
}
