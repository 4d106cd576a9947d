package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/config"
	"github.com/unihealth/care-api/internal/email"
	alertHandler "github.com/unihealth/care-api/internal/handler/alert"
	appointmentHandler "github.com/unihealth/care-api/internal/handler/appointment"
	auditHandler "github.com/unihealth/care-api/internal/handler/audit"
	authHandler "github.com/unihealth/care-api/internal/handler/auth"
	catalogHandler "github.com/unihealth/care-api/internal/handler/catalog"
	"github.com/unihealth/care-api/internal/handler/health"
	medicalHandler "github.com/unihealth/care-api/internal/handler/medical"
	patientHandler "github.com/unihealth/care-api/internal/handler/patient"
	userHandler "github.com/unihealth/care-api/internal/handler/user"
	"github.com/unihealth/care-api/internal/middleware"
	"github.com/unihealth/care-api/internal/repository/cache"
	"github.com/unihealth/care-api/internal/repository/postgres"
	"github.com/unihealth/care-api/internal/router"
	alertService "github.com/unihealth/care-api/internal/service/alert"
	appointmentService "github.com/unihealth/care-api/internal/service/appointment"
	auditService "github.com/unihealth/care-api/internal/service/audit"
	authService "github.com/unihealth/care-api/internal/service/auth"
	catalogService "github.com/unihealth/care-api/internal/service/catalog"
	medicalService "github.com/unihealth/care-api/internal/service/medical"
	"github.com/unihealth/care-api/internal/service/notification"
	patientService "github.com/unihealth/care-api/internal/service/patient"
	userService "github.com/unihealth/care-api/internal/service/user"
	"github.com/unihealth/care-api/internal/storage"
	"github.com/unihealth/care-api/internal/websocket"
	"github.com/unihealth/care-api/internal/worker"
	"github.com/unihealth/care-api/pkg/auth"
	"github.com/unihealth/care-api/pkg/lock"
	"github.com/unihealth/care-api/pkg/logger"
	"github.com/unihealth/care-api/pkg/messaging"
	"github.com/unihealth/care-api/pkg/messaging/redis"
	"github.com/unihealth/care-api/pkg/metrics"
	"github.com/unihealth/care-api/pkg/security"
	"github.com/unihealth/care-api/pkg/validator"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    !cfg.IsProduction(),
	})
	lg.SetGlobal()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	m := metrics.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	// Initialize repositories
	repos := postgres.NewRepositories(db, m)
	catalogRepo := cache.NewCatalogRepository(repos.Catalogs, cache.DefaultConfig())

	checks := map[string]health.Checker{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	// Redis carries notifications and booking locks across replicas; a single
	// instance runs on the in-process broker.
	var (
		broker messaging.Broker = messaging.NewMemoryBroker()
		locker lock.Locker      = lock.Noop{}
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		broker = redis.NewRedisBroker(client, lg.Zerolog())
		locker = lock.NewRedisLocker(client, "scheduling:lock", cfg.Scheduling.LockTTL)
		checks["redis"] = broker.Ping
	}
	defer broker.Close()

	files, err := storage.NewLocalStore(cfg.Storage.AttachmentsDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize attachment storage")
	}

	var mailer email.Service = email.Noop{}
	if cfg.Email.Enabled() {
		mailer = email.NewSMTPService(cfg.Email)
	}

	location, _ := cfg.Scheduling.Location()

	// Initialize services
	auditSvc := auditService.NewService(repos.Audit)
	auditor := auditService.NewAuditLogger(auditSvc)
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	notifier := notification.NewService(broker, mailer, cfg.Email.OnCall, m)

	authSvc := authService.NewService(repos.Users, jwtSvc, hasher, auditor)
	userSvc := userService.NewService(repos.Users, hasher, auditor)
	var encryptor security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		if encryptor, err = security.NewAESEncryptorFromBase64(cfg.Security.EncryptionKey); err != nil {
			log.Fatal().Err(err).Msg("invalid security.encryption_key")
		}
	} else {
		log.Warn().Msg("security.encryption_key not set, patient history stored unencrypted")
	}
	patientSvc := patientService.NewService(repos.Patients, encryptor)
	catalogSvc := catalogService.NewService(catalogRepo)
	appointmentSvc := appointmentService.NewService(
		repos.Appointments, repos.Availability, repos.Users, catalogRepo, locker, m, auditor,
		appointmentService.Config{Location: location, DefaultSlotMinutes: cfg.Scheduling.DefaultSlotMinutes},
	)
	alertSvc := alertService.NewService(repos.Alerts, repos.Users, catalogRepo, notifier, m, auditor)
	medicalSvc := medicalService.NewService(repos.Medical, repos.Users, catalogRepo, files, auditor)

	if err := validator.RegisterGinValidations(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	hub := websocket.NewHub()
	if err := hub.Run(ctx, broker, notification.ChannelAlerts); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to alert notifications")
	}

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Auth:        authHandler.NewHandler(authSvc),
			Health:      health.NewHandler(checks),
			User:        userHandler.NewHandler(userSvc),
			Patient:     patientHandler.NewHandler(patientSvc),
			Appointment: appointmentHandler.NewHandler(appointmentSvc),
			Alert:       alertHandler.NewHandler(alertSvc),
			Medical:     medicalHandler.NewHandler(medicalSvc),
			Catalog:     catalogHandler.NewHandler(catalogSvc),
			Audit:       auditHandler.NewHandler(auditSvc),
			Realtime:    websocket.NewHandler(hub, cfg.Server.AllowedOrigins),
		},
		router.RouterConfig{
			RateLimit:      cfg.Server.RateLimit,
			RateBurst:      cfg.Server.RateBurst,
			RequestTimeout: cfg.Server.RequestTimeout,
			CORSConfig:     corsConfig(cfg.Server.AllowedOrigins),
			MaxUploadBytes: cfg.Storage.MaxUploadBytes,
			MetricsPrefix:  cfg.Metrics.Namespace,
			Production:     cfg.IsProduction(),
		},
	)
	r.Setup()

	go worker.NewAuditCleanupWorker(auditSvc, cfg.Audit.Retention, cfg.Audit.CleanupPeriod).Start(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Environment).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func corsConfig(origins []string) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(origins) > 0 {
		c.AllowOrigins = origins
	}
	return c
}
