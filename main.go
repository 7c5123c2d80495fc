package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"growup/internal/config"
	"growup/internal/errs"
	"growup/internal/handlers"
	"growup/internal/middleware"
	"growup/internal/services"
	"growup/pkg/cache"
	"growup/pkg/logger"
	"growup/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

// application owns the HTTP app and every process-wide resource behind it.
type application struct {
	app    *fiber.App
	stores *stores
	cache  *cache.RedisCache
	mq     *rabbitmq.Client
	log    zerolog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so fall back to a default one here.
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := a.startAuditConsumer(); err != nil {
		log.Error().Err(err).Msg("failed to start event consumer")
	}

	// --- Start HTTP Server ---
	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := a.app.Listen(cfg.AppPort); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}

// newApplication connects the configured backends and builds the Fiber app.
func newApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*application, error) {
	a := &application{log: log}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.stores = st

	opts := []services.Option{services.WithLogger(log)}

	if cfg.RedisAddr != "" {
		a.cache, err = cache.NewRedisCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			_ = a.shutdown(ctx)
			return nil, err
		}
		opts = append(opts, services.WithCache(a.cache))
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache enabled")
	}

	if cfg.RabbitMQURL != "" {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			_ = a.shutdown(ctx)
			return nil, err
		}
		opts = append(opts, services.WithPublisher(a.mq, rabbitmq.EventsExchange))
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(st.users, services.AuthConfig{
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		StartingBalance: cfg.StartingBalance,
	}, opts...)
	watchlistService := services.NewWatchlistService(st.watchlists, opts...)
	holdingService := services.NewHoldingService(st.holdings, opts...)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.RequestTimeout, log)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, cfg.RequestTimeout, log)
	holdingHandler := handlers.NewHoldingHandler(holdingService, cfg.RequestTimeout, log)

	app := fiber.New(fiber.Config{
		AppName:               "growup",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "GrowUp API is running",
		})
	})

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  cfg.StoreDriver,
			"cache":  a.cache != nil,
			"events": a.mq != nil,
		})
	})

	// --- API Routes ---
	authHandler.RegisterRoutes(app)

	// Protected routes (require JWT authentication)
	authRequired := middleware.AuthRequired(authService, log)
	authHandler.RegisterProtectedRoutes(app, authRequired)
	watchlistHandler.RegisterRoutes(app, authRequired)
	holdingHandler.RegisterRoutes(app, authRequired)

	a.app = app
	return a, nil
}

// errorHandler renders errors that escape the handlers, such as unknown
// routes, in the same {"msg", "kind"} shape.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code, msg = fe.Code, fe.Message
		}

		kind := errs.KindInternal
		switch code {
		case fiber.StatusBadRequest:
			kind = errs.KindValidation
		case fiber.StatusUnauthorized:
			kind = errs.KindUnauthorized
		case fiber.StatusForbidden:
			kind = errs.KindForbidden
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			kind = errs.KindNotFound
		}
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"msg": msg, "kind": kind})
	}
}

// startAuditConsumer logs every domain event as an audit trail.
func (a *application) startAuditConsumer() error {
	if a.mq == nil {
		return nil
	}
	audit := a.log.With().Str("component", "audit").Logger()
	return a.mq.ConsumeEvents(func(msg amqp.Delivery) error {
		var event services.Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return err
		}
		audit.Info().
			Str("event", event.Type).
			Str("key", event.Key).
			Time("occurred_at", event.OccurredAt).
			RawJSON("body", msg.Body).
			Msg("domain event")
		return nil
	})
}

// shutdown stops the HTTP server and releases every resource.
func (a *application) shutdown(ctx context.Context) error {
	var errList []error
	if a.app != nil {
		if err := a.app.ShutdownWithContext(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	if a.stores != nil {
		if err := a.stores.close(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
