package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/internal/infrastructure/alerting"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/internal/infrastructure/metrics"
	"github.com/jhoicas/stock-engine/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-engine/internal/interfaces/http"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
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
		Str("store", cfg.Inventory.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de stock")
	}
	defer closeStore()
	storeLog := log.Component("store")
	storeLog.Info().Str("backend", cfg.Inventory.Store).Msg("almacenamiento listo")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheus(reg)

	// Alertas: el sink de logs detrás de una cola para no frenar el camino de reserva.
	alerts := alerting.NewQueueDispatcher(
		alerting.NewLogDispatcher(log.Zerolog()),
		cfg.Inventory.AlertQueueSize,
		log.Zerolog(),
	)

	locks := inventory.NewLockRegistry(cfg.Inventory.MaxLockWait())
	cache := inventory.NewReservationCache()

	monitor := inventory.NewLowStockMonitor(repo, alerts, inventory.MonitorConfig{
		DefaultReorderPoint: cfg.Inventory.LowStockThreshold,
		Cooldown:            cfg.Inventory.AlertCooldown(),
	}, log.Zerolog())
	monitor.UseMetrics(rec)

	reservationUC := inventory.NewReservationUseCase(repo, locks, cache, monitor, log.Zerolog())
	reservationUC.UseMetrics(rec)

	bulkUC := inventory.NewBulkUpdateUseCase(repo, locks, cache, monitor, nil, inventory.BulkConfig{
		FailureAbortRatio:       cfg.Inventory.BulkFailureAbortRatio,
		OverflowNotifyThreshold: cfg.Inventory.OverflowNotifyThreshold,
	}, log.Zerolog())
	bulkUC.UseMetrics(rec)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName: cfg.App.Name,
		Reservation: reservationUC,
		Bulk:        bulkUC,
		Gatherer:    reg,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	alerts.Close()
	dropped, failed := alerts.Stats()
	log.Info().
		Uint64("alerts_dropped", dropped).
		Uint64("alerts_failed", failed).
		Msg("aplicación detenida")
}

// openStore abre el backend elegido en INVENTORY_STORE.
func openStore(ctx context.Context, cfg *config.Config) (repository.StockRecordRepository, func(), error) {
	if cfg.Inventory.Store != config.StorePostgres {
		return memory.NewStockRecordRepository(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewStockRecordRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool.Close, nil
}
