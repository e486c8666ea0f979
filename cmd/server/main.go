package main // Entry point package

import (
	"context" // Context for background workers
	"log"     // Logging library

	"github.com/joho/godotenv" // Loads .env files in development
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/lock"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(database.Params{
		User:         cfg.DBUser,
		Pass:         cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxConns:     cfg.DBMaxConns,
		ConnLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// The lock store is a correctness dependency, not a cache: without it
	// concurrent reservations race, so startup fails rather than degrades.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed, refusing to start without a lock store")
	}
	locker := lock.NewRedisManager(rdb)

	events := repository.NewEventRepo(db)
	eventSeats := repository.NewEventSeatRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	venues := repository.NewVenueRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	bookingSvc := service.NewBookingService(db, events, eventSeats, bookings, payments, locker, queue.NewPublisher(), cfg.LockTTL)
	sweeper := service.NewSweeper(bookings, bookingSvc, cfg.ReservationWindow, cfg.SweepInterval)
	gateway := &service.MockGateway{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx) // Enforces the reservation window in the background

	go func() { // Consumes booking.confirmed events; reconnects internally
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("rabbitmq consumer: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewVenueHandler(venues), handler.NewEventHandler(events, eventSeats, venues))
	router.RegisterBooking(e,
		handler.NewBookingHandler(bookingSvc, bookings),
		handler.NewPaymentHandler(bookingSvc, gateway, locker, sweeper),
		handler.NewVenueHandler(venues),
		handler.NewEventHandler(events, eventSeats, venues),
		cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
