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

	"github.com/farmaops/farmacia-stock-api/internal/application/alerts"
	"github.com/farmaops/farmacia-stock-api/internal/application/auth"
	"github.com/farmaops/farmacia-stock-api/internal/application/catalog"
	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/lots"
	"github.com/farmaops/farmacia-stock-api/internal/application/reconciliation"
	"github.com/farmaops/farmacia-stock-api/internal/application/rotation"
	"github.com/farmaops/farmacia-stock-api/internal/application/tenant"
	"github.com/farmaops/farmacia-stock-api/internal/application/valuation"
	"github.com/farmaops/farmacia-stock-api/internal/infrastructure/postgres"
	httpRouter "github.com/farmaops/farmacia-stock-api/internal/interfaces/http"
	"github.com/farmaops/farmacia-stock-api/pkg/config"
	"github.com/farmaops/farmacia-stock-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
		Level:   "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool (lecturas fuera de transacción). El TxRunner
	// construye sus propias instancias ligadas a la tx de cada operación.
	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	movRepo := postgres.NewLotMovementRepository(pool)
	rotationRepo := postgres.NewRotationConfigRepository(pool)
	reconRepo := postgres.NewReconciliationRepository(pool)
	thresholdRepo := postgres.NewAlertThresholdRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := ledger.NewUseCase(txRunner, ledger.Config{
		MaxRetries:         cfg.Stock.LedgerMaxRetries,
		AllowNegativeStock: cfg.Stock.AllowNegativeStock,
	})
	lotsUC := lots.NewUseCase(lotRepo, movRepo)
	rotationUC := rotation.NewUseCase(rotationRepo, lotRepo, productRepo)
	valuationUC := valuation.NewUseCase(lotRepo, movRepo, productRepo, companyRepo, rotationRepo)
	reconciliationUC := reconciliation.NewUseCase(txRunner, ledgerUC, reconRepo, lotRepo, productRepo)
	alertsUC := alerts.NewUseCase(lotRepo, productRepo, thresholdRepo)
	catalogUC := catalog.NewUseCase(productRepo, companyRepo)
	tenantUC := tenant.NewUseCase(companyRepo)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

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
		Title:    "Farmacia Stock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:                 authUC,
		TenantUC:               tenantUC,
		CatalogUC:              catalogUC,
		LedgerUC:               ledgerUC,
		LotsUC:                 lotsUC,
		RotationUC:             rotationUC,
		ValuationUC:            valuationUC,
		ReconciliationUC:       reconciliationUC,
		AlertsUC:               alertsUC,
		JWTSecret:              cfg.JWT.Secret,
		ExpirationAlertDays:    cfg.Stock.ExpirationAlertDays,
		ExpirationCriticalDays: cfg.Stock.ExpirationCriticalDays,
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

	log.Info().Msg("aplicación detenida")
}
