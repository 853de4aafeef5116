// @title           Banka Provisioning API
// @version         1.0
// @description     Asistente de alta de cuentas corrientes personales y de empresa.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/okojic12722rn/banka-provisioning/docs"
	"github.com/okojic12722rn/banka-provisioning/internal/application/provisioning"
	"github.com/okojic12722rn/banka-provisioning/internal/domain/repository"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/bankapi"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/events"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/metrics"
	infrapdf "github.com/okojic12722rn/banka-provisioning/internal/infrastructure/pdf"
	"github.com/okojic12722rn/banka-provisioning/internal/infrastructure/postgres"
	httpRouter "github.com/okojic12722rn/banka-provisioning/internal/interfaces/http"
	"github.com/okojic12722rn/banka-provisioning/pkg/config"
	"github.com/okojic12722rn/banka-provisioning/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("user_service", cfg.Remote.UserServiceURL).
		Str("banking_service", cfg.Remote.BankingServiceURL).
		Msg("iniciando aplicación")

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	userClient := bankapi.NewClient(cfg.Remote.UserServiceURL, cfg.Remote.Timeout, m)
	bankingClient := bankapi.NewClient(cfg.Remote.BankingServiceURL, cfg.Remote.Timeout, m)

	factories := []provisioning.HookFactory{
		provisioning.LoggingHooks(log),
		provisioning.MetricsHooks(m),
	}

	// Redis Streams: eventos del asistente (opcional)
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		publisher := events.NewPublisher(rdb, cfg.Redis.StreamMaxLen)
		if err := publisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no responde; los eventos que fallen solo quedan en el log")
		}
		// Publicación fuera de la petición: un Redis lento no frena el asistente.
		async := events.NewAsyncPublisher(publisher, cfg.Redis.QueueSize, 3*time.Second, log)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := async.Close(drainCtx); err != nil {
				log.Warn().Err(err).Msg("eventos pendientes sin publicar al apagar")
			}
		}()
		factories = append(factories, provisioning.EventHooks(async, log))
	}

	// PostgreSQL: diario de altas y huérfanos (opcional)
	var pool *pgxpool.Pool
	var journal repository.ProvisioningJournal
	if cfg.DB.Enabled() {
		pool, err = postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración del diario de altas")
		}
		journal = postgres.NewProvisioningJournalRepository(pool)
		factories = append(factories, provisioning.JournalHooks(journal, log))
	}

	sessions := provisioning.NewSessionManager(provisioning.Deps{
		Customers: bankapi.NewCustomerRegistrar(userClient),
		Companies: bankapi.NewCompanyRegistrar(bankingClient),
		Accounts:  bankapi.NewAccountProvisioner(bankingClient),
		Currency:  cfg.Remote.DefaultCurrency,
	}, factories...)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Remote.Timeout*3 + time.Second*10, // hasta tres llamadas remotas encadenadas
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := fiber.Map{}
		status := fiber.StatusOK
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if rdb != nil {
			checks["redis"] = "ok"
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				checks["redis"] = err.Error()
				status = fiber.StatusServiceUnavailable
			}
		}
		if pool != nil {
			checks["postgres"] = "ok"
			if err := pool.Ping(pingCtx); err != nil {
				checks["postgres"] = err.Error()
				status = fiber.StatusServiceUnavailable
			}
		}
		overall := "ok"
		if status != fiber.StatusOK {
			overall = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   overall,
			"service":  cfg.App.Name,
			"sessions": sessions.Len(),
			"checks":   checks,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:  sessions,
		Receipts:  infrapdf.NewMarotoReceiptGenerator(cfg.App.Name),
		Journal:   journal,
		JWTSecret: cfg.JWT.Secret,
	})

	// Sesiones abandonadas: se cancelan y se olvidan.
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeIdleSessions(purgeCtx, sessions, cfg.Session.IdleTimeout, m, log)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func purgeIdleSessions(ctx context.Context, sessions *provisioning.SessionManager, idle time.Duration, m *metrics.Metrics, log *logger.Logger) {
	if idle <= 0 {
		return
	}
	every := idle / 4
	if every < time.Minute {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.PurgeIdle(now.Add(-idle)); n > 0 {
				log.Info().Int("purged", n).Dur("idle", idle).Msg("sesiones inactivas eliminadas")
			}
			m.SetSessionsActive(sessions.Len())
		}
	}
}
