package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/config"
	"github.com/iliyamo/travel-booking-admin/internal/database"
	"github.com/iliyamo/travel-booking-admin/internal/handler"
	"github.com/iliyamo/travel-booking-admin/internal/logger"
	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/queue"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
	"github.com/iliyamo/travel-booking-admin/internal/router"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load()

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			zl.Fatal("migration failed", zap.Error(err))
		}
		zl.Info("schema applied")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unreachable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	activities := repository.NewActivityRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	offerRepo := repository.NewOfferRepo(db)
	notes := service.NewNotificationService(repository.NewNotificationRepo(db), users, cfg.SystemActorID, zl.Named("notifications"))

	// Events go through RabbitMQ when enabled, otherwise straight to the
	// notification service on a goroutine.
	var sink service.EventSink = service.NewDirectSink(notes, zl.Named("events"))
	if cfg.AMQPEnabled {
		sink = queue.NewPublisher(cfg.AMQPURL, cfg.NotificationQueue, zl.Named("publisher"))
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.NotificationQueue, notes, zl.Named("consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("consumer stopped", zap.Error(err))
			}
		}()
	}
	go notes.RunCleanup(ctx, cfg.NotificationCleanupEvery)

	gate := service.NewAccessGate(cfg.JWTSecret, cfg.LegacyTokens, users, zl.Named("access"))
	auth := service.NewAuthService(users, repository.NewTokenRepo(db), service.AuthSettings{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, zl.Named("auth"))
	engine := service.NewBookingEngine(users, activities, bookingRepo, sink, zl.Named("bookings"))
	engine.SetLocation(cfg.Location)
	availability := service.NewAvailabilityService(activities, bookingRepo)
	availability.SetLocation(cfg.Location)
	admin := service.NewAdminService(users, activities, bookingRepo, offerRepo, zl.Named("admin"))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, middleware.UserEmailHeader, handler.CreatedByHeader},
	}))
	e.Use(middleware.RequestLogger(zl.Named("http")))

	guard := router.Guard{
		Gate:      gate,
		Users:     users,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Log:       zl.Named("guard"),
	}
	surfaces := router.BookingSurfaces{
		Customer: handler.NewBookingHandler(engine, service.ScopeSelf, zl),
		Owner:    handler.NewBookingHandler(engine, service.ScopeOwner, zl),
		Admin:    handler.NewBookingHandler(engine, service.ScopeAdmin, zl),
	}
	noteHandler := handler.NewNotificationHandler(notes, zl)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, guard, handler.NewAuthHandler(auth, zl), handler.NewProfileHandler(admin, zl))
	router.RegisterCatalog(e, guard,
		handler.NewActivityHandler(service.NewCatalogService(activities, zl.Named("catalog")), zl),
		handler.NewOfferHandler(service.NewOfferService(offerRepo, activities, sink, zl.Named("offers")), zl),
		handler.NewAvailabilityHandler(availability, zl))
	router.RegisterBookings(e, guard, surfaces, noteHandler)
	router.RegisterAdmin(e, guard, handler.NewAdminHandler(admin, zl), surfaces, noteHandler)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("tz", cfg.Location.String()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown failed", zap.Error(err))
	}
}
