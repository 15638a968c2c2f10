package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinebook/internal/config"
	"github.com/iliyamo/cinebook/internal/database"
	"github.com/iliyamo/cinebook/internal/handler"
	"github.com/iliyamo/cinebook/internal/logger"
	"github.com/iliyamo/cinebook/internal/mailer"
	"github.com/iliyamo/cinebook/internal/middleware"
	"github.com/iliyamo/cinebook/internal/queue"
	"github.com/iliyamo/cinebook/internal/repository"
	"github.com/iliyamo/cinebook/internal/router"
	"github.com/iliyamo/cinebook/internal/service"
	"github.com/iliyamo/cinebook/internal/tmdb"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		envFile  string
		addr     string
		migrate  bool
		consumer bool
	)
	flags := pflag.NewFlagSet("cinebook", pflag.ContinueOnError)
	flags.StringVar(&envFile, "env-file", ".env", "load environment variables from this file when it exists")
	flags.StringVar(&addr, "addr", "", "listen address (default \":$APP_PORT\")")
	flags.BoolVar(&migrate, "migrate", true, "create missing tables at startup")
	flags.BoolVar(&consumer, "consumer", true, "run the booking log consumer when RabbitMQ is configured")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, os.Getenv("LOG_LEVEL")))
	if addr == "" {
		addr = ":" + cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DBPath
	if cfg.DBDriver == database.DriverMySQL {
		dsn = database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	db, err := database.Open(cfg.DBDriver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL)
		defer pub.Close()
		events = pub
	}

	store := repository.NewStore(db)
	catalogAPI := tmdb.New(cfg.TMDBBaseURL, cfg.TMDBAPIKey, cfg.TMDBTimeout)
	if !catalogAPI.Configured() {
		logger.Warn("TMDB_API_KEY not set, catalog proxy disabled and new movies get placeholder metadata")
	}

	auth := service.NewAuthService(store.Users, newMailer(cfg), service.AuthConfig{
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.SessionTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		BcryptCost:    cfg.BcryptCost,
		AdminEmails:   cfg.AdminEmails,
		FrontendURL:   cfg.FrontendURL,
	})
	catalog := service.NewCatalogService(store, catalogAPI)
	bookings := service.NewBookingService(store, catalog, events, service.BookingOptions{
		AllowWalkUp: cfg.BookingAllowWalkUp,
		SeedReview:  cfg.BookingSeedReview,
	})
	reviews := service.NewReviewService(store)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestContext())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomw.BodyLimit("1M"))

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Bookings: handler.NewBookingHandler(bookings),
		Movies:   handler.NewMovieHandler(catalog),
		Reviews:  handler.NewReviewHandler(reviews),
		TMDB:     handler.NewTMDBHandler(catalogAPI),
		Ready:    handler.Ready(db),
		Verifier: auth,
	}
	router.RegisterRoutes(e, h)
	router.RegisterAPI(e, h, router.Options{
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "db", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if consumer && cfg.AMQPURL != "" {
		g.Go(func() error {
			err := queue.StartBookingConsumer(gctx, cfg.AMQPURL, cfg.BookingLogDir)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// newMailer picks MailerSend when configured.  Outside production the dev
// mailer logs reset links; in production they are dropped instead.
func newMailer(cfg config.Config) mailer.Sender {
	if ms := mailer.NewMailerSend(cfg.MailerSendKey, cfg.MailFromName, cfg.MailFromAddress); ms.Enabled() {
		return ms
	}
	if cfg.IsProduction() {
		logger.Warn("no mail provider configured, password reset emails will not be delivered")
		return mailer.Discard{}
	}
	return mailer.NewDevMailer()
}
