package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/viajes-nova/viajes-api/internal/activities"
	"github.com/viajes-nova/viajes-api/internal/app"
	"github.com/viajes-nova/viajes-api/internal/auth"
	"github.com/viajes-nova/viajes-api/internal/itineraries"
	"github.com/viajes-nova/viajes-api/internal/lookup"
	"github.com/viajes-nova/viajes-api/internal/observability"
	"github.com/viajes-nova/viajes-api/internal/platform/cache"
	"github.com/viajes-nova/viajes-api/internal/platform/db"
	"github.com/viajes-nova/viajes-api/internal/rbac"
	"github.com/viajes-nova/viajes-api/internal/reservations"
	"github.com/viajes-nova/viajes-api/internal/roles"
	"github.com/viajes-nova/viajes-api/internal/shared"
	"github.com/viajes-nova/viajes-api/internal/tourpackages"
	"github.com/viajes-nova/viajes-api/internal/travelservices"
	"github.com/viajes-nova/viajes-api/internal/users"
	"github.com/viajes-nova/viajes-api/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if !cfg.SigningSecretConfigured() {
		logger.Error("JWT_SECRET is not set; protected routes will answer 500 until it is configured")
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbpool); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	auditClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := auditClient.Close(); err != nil {
			logger.Warn("audit client close", slog.Any("error", err))
		}
	}()
	idempotency := shared.NewIdempotencyStore(redisClient, cache.KeyPrefix, cfg.IdempotencyTTL)

	tokens := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	authMiddleware := auth.NewMiddleware(tokens, logger, metrics)
	authService := auth.NewService(auth.NewRepository(dbpool), hasher, tokens)
	authHandler := auth.NewHandler(logger, authService, authMiddleware, app.LoginLimiter(cfg))

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{
		Access:        rbacService,
		Logger:        logger,
		Observer:      metrics,
		LookupTimeout: cfg.AuthzLookupTimeout,
	}

	rolesHandler := roles.NewHandler(logger, roles.NewService(rbacService, auditClient, logger), rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, auditClient, rbacMiddleware)
	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool), hasher, auditClient, logger), rbacMiddleware)

	packagesHandler := tourpackages.NewHandler(logger, tourpackages.NewService(tourpackages.NewRepository(dbpool)), rbacMiddleware)
	itinerariesHandler := itineraries.NewHandler(logger, itineraries.NewService(itineraries.NewRepository(dbpool)), rbacMiddleware)
	activitiesHandler := activities.NewHandler(logger, activities.NewService(activities.NewRepository(dbpool)), rbacMiddleware)
	servicesHandler := travelservices.NewHandler(logger, travelservices.NewCatalog(travelservices.NewRepository(dbpool), auditClient, logger), rbacMiddleware)
	reservationsService := reservations.NewService(reservations.NewRepository(dbpool), auditClient, logger)
	reservationsHandler := reservations.NewHandler(logger, reservationsService, idempotency, rbacMiddleware)

	lookupHandler := lookup.NewHandler(logger, lookup.NewRepository(dbpool), cache.NewJSONCache(redisClient, cfg.LookupCacheTTL))

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Authentication:      authMiddleware,
		AuthHandler:         authHandler,
		RolesHandler:        rolesHandler,
		PermissionsHandler:  permissionsHandler,
		UsersHandler:        usersHandler,
		PackagesHandler:     packagesHandler,
		ItinerariesHandler:  itinerariesHandler,
		ActivitiesHandler:   activitiesHandler,
		ServicesHandler:     servicesHandler,
		ReservationsHandler: reservationsHandler,
		LookupHandler:       lookupHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
		Health: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
