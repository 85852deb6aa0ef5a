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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	appaudit "github.com/tu-usuario/reservas-api/internal/application/audit"
	"github.com/tu-usuario/reservas-api/internal/application/reservation"
	appstock "github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/infrastructure/auditsink"
	"github.com/tu-usuario/reservas-api/internal/infrastructure/postgres"
	"github.com/tu-usuario/reservas-api/internal/infrastructure/redicache"
	httpRouter "github.com/tu-usuario/reservas-api/internal/interfaces/http"
	"github.com/tu-usuario/reservas-api/pkg/config"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Cache de disponibilidad (opcional: REDIS_ADDR vacío lo desactiva)
	var cache appstock.AvailabilityCache
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis no disponible; cache de disponibilidad desactivado")
		} else {
			cache = redicache.New(redisClient, cfg.Redis.TTL(), log)
		}
	}

	// Sink de auditoría (opcional: KAFKA_BROKERS vacío usa el noop)
	var sink appaudit.Sink = auditsink.NewNoopSink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink := auditsink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer func() { _ = kafkaSink.Close() }()
		sink = kafkaSink
	}

	txRunner := postgres.NewTxRunner(pool)
	ledger := appstock.NewTxLedger(txRunner, cache, log)
	reservationRepo := postgres.NewReservationRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	receiptRepo := postgres.NewReceiptRepository(pool)

	manager := reservation.NewManager(reservationRepo, ledger, sink, cfg.Reservation.HoldDuration(), log)
	transfers := appstock.NewTransferOrchestrator(ledger, transferRepo, sink, log)
	purchasing := appstock.NewPurchaseOrderProcessor(ledger, receiptRepo, log)

	// Único task de fondo: el barrido de holds vencidos
	reaper := reservation.NewReaper(manager, reservationRepo, cfg.Reservation.ReaperInterval(), cfg.Reservation.ReaperBatchSize, log)
	go reaper.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Reservas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Manager:    manager,
		Ledger:     ledger,
		Transfers:  transfers,
		Purchasing: purchasing,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	// Detener el reaper primero: no emite barridos nuevos y el barrido en
	// vuelo termina o aborta limpio.
	stopReaper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
