package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// stores repositorios de lectura y unidad de trabajo del driver elegido.
type stores struct {
	txRunner     inventory.TxRunner
	movements    repository.StockMovementRepository
	levels       repository.StockLevelRepository
	reservations repository.ReservationRepository
	products     repository.ProductRepository
	warehouses   repository.WarehouseRepository
	close        func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	lockTimeout := time.Duration(cfg.Ledger.LockTimeoutMS) * time.Millisecond
	if cfg.Ledger.StoreDriver == "memory" {
		store := memory.NewStore(memory.WithLockTimeout(lockTimeout))
		if cfg.Ledger.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.Ledger.SeedFile); err != nil {
				return nil, err
			}
		}
		log.Warn().Msg("driver memory: los datos se pierden al reiniciar")
		return &stores{
			txRunner:     store.TxRunner(),
			movements:    store.Movements(),
			levels:       store.Levels(),
			reservations: store.Reservations(),
			products:     store.Products(),
			warehouses:   store.Warehouses(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		txRunner:     postgres.NewTxRunner(pool, cfg.Ledger.MaxRetries, lockTimeout, log),
		movements:    postgres.NewStockMovementRepository(pool),
		levels:       postgres.NewStockLevelRepository(pool),
		reservations: postgres.NewReservationRepository(pool),
		products:     postgres.NewProductRepository(pool),
		warehouses:   postgres.NewWarehouseRepository(pool),
		close:        pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento del ledger")
	}
	defer st.close()

	catalog := inventory.NewCatalog(st.products, st.warehouses)
	transfers := inventory.NewTransferCoordinator(st.txRunner, catalog, log)
	ledger := inventory.NewStockLedger(st.txRunner, st.movements, st.levels, catalog, transfers, log)
	reservations := inventory.NewReservationManager(st.txRunner, st.reservations, catalog, log,
		inventory.WithDefaultTTL(time.Duration(cfg.Ledger.DefaultReservationTTLMinutes)*time.Minute))
	exchange := inventory.NewCSVExchange(ledger, catalog, log)
	monitor := analytics.NewLowStockMonitor(st.products, st.warehouses, st.levels)
	valuation := analytics.NewValuationEngine(st.products, st.warehouses, st.levels, st.movements)

	// Sin Redis las alertas programadas solo van al log.
	var (
		publisher analytics.AlertPublisher = analytics.NewLogAlertPublisher(log)
		snapshots httpRouter.SnapshotSource
	)
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, se reintenta en cada publicación")
		}
		redisPublisher := cache.NewRedisAlertPublisher(rdb, cfg.Redis.AlertChannel, log)
		publisher, snapshots = redisPublisher, redisPublisher
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024, // importaciones CSV
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Ledger.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovementUC:     usecase.NewMovementUseCase(ledger, catalog),
		ReservationUC:  usecase.NewReservationUseCase(reservations),
		AnalyticsUC:    usecase.NewAnalyticsUseCase(monitor, valuation),
		ExchangeUC:     usecase.NewExchangeUseCase(exchange),
		AlertSnapshots: snapshots,
	})

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(cfg.Scheduler, monitor, publisher, reservations, log)
		if err := jobs.Start(); err != nil {
			log.Fatal().Err(err).Msg("programar tareas")
		}
	}

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

	if jobs != nil {
		jobs.Stop(shutdownCtx)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
