package main // Entry point of the reservation API

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/database"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/invoice"
	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/mailer"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/repository"
	"github.com/iliyamo/venue-reservation/internal/router"
	"github.com/iliyamo/venue-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional outside development

	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(context.Background(), db); err != nil {
			logger.Fatal("run migrations", "err", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	loc := cfg.BusinessLocation()
	svc := service.NewReservationService(
		repository.NewReservationRepo(db),
		repository.NewPlaceRepo(db),
		repository.NewUserRepo(db),
		invoice.NewPDFRenderer(loc),
		notifier(cfg),
		service.Options{
			Location:     loc,
			CancelWindow: cfg.CancelWindow,
			Listener:     middleware.NewCacheInvalidator(rdb, cacheCfg),
		},
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestID(), middleware.AccessLog(), echomw.Recover())

	router.RegisterRoutes(e, db)
	router.RegisterReservation(e, handler.NewReservationHandler(svc), cfg.JWTSecret, router.Guards{
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		ReadLimit:  middleware.NewTokenBucket(rlCfg, rdb),
		WriteLimit: middleware.NewTokenBucket(rlCfg.ForWrites(), rdb),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "notify_mode", cfg.NotifyMode)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	log.Info("server stopped")
}

// notifier picks the delivery path for reservation emails.
func notifier(cfg config.Config) service.Notifier {
	switch cfg.NotifyMode {
	case config.NotifyQueue:
		return queue.NewEmailPublisher(cfg.RabbitMQURL)
	case config.NotifyLog:
		return mailer.LogNotifier{}
	default:
		return mailer.NewSMTPNotifier(cfg.SMTP)
	}
}
