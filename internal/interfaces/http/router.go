package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmaops/farmacia-stock-api/internal/application/alerts"
	"github.com/farmaops/farmacia-stock-api/internal/application/auth"
	"github.com/farmaops/farmacia-stock-api/internal/application/catalog"
	"github.com/farmaops/farmacia-stock-api/internal/application/ledger"
	"github.com/farmaops/farmacia-stock-api/internal/application/lots"
	"github.com/farmaops/farmacia-stock-api/internal/application/reconciliation"
	"github.com/farmaops/farmacia-stock-api/internal/application/rotation"
	"github.com/farmaops/farmacia-stock-api/internal/application/tenant"
	"github.com/farmaops/farmacia-stock-api/internal/application/valuation"
	"github.com/farmaops/farmacia-stock-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	TenantUC         *tenant.UseCase
	CatalogUC        *catalog.UseCase
	LedgerUC         *ledger.UseCase
	LotsUC           *lots.UseCase
	RotationUC       *rotation.UseCase
	ValuationUC      *valuation.UseCase
	ReconciliationUC *reconciliation.UseCase
	AlertsUC         *alerts.UseCase
	JWTSecret        string
	// ventanas por defecto para la urgencia computada en respuestas de lotes
	ExpirationAlertDays    int
	ExpirationCriticalDays int
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Companies (público por ahora; se puede proteger con AuthMiddleware(deps.JWTSecret))
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.TenantUC)
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Lots (protegido)
	lotsGroup := protected.Group("/lots")
	lotHandler := NewLotHandler(deps.LedgerUC, deps.LotsUC, deps.ExpirationAlertDays, deps.ExpirationCriticalDays)
	lotsGroup.Post("/", lotHandler.Receive)
	lotsGroup.Get("/", lotHandler.ListByProduct)
	lotsGroup.Get("/:id", lotHandler.GetByID)
	lotsGroup.Get("/:id/movements", lotHandler.History)
	lotsGroup.Post("/:id/block", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), lotHandler.Block)
	lotsGroup.Post("/:id/unblock", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), lotHandler.Unblock)

	// Movements (protegido)
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(deps.LedgerUC, deps.LotsUC)
	movements.Post("/", movementHandler.Apply)
	movements.Get("/", movementHandler.ListByProduct)
	movements.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), movementHandler.Update)
	movements.Delete("/:id", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), movementHandler.Delete)

	// Rotation (protegido; configuración solo admin/farmaceuta)
	rotationGroup := protected.Group("/rotation")
	rotationHandler := NewRotationHandler(deps.RotationUC)
	rotationGroup.Post("/select", rotationHandler.SelectLots)
	rotationGroup.Get("/compliance", rotationHandler.ValidateCompliance)
	rotationGroup.Put("/configs", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), rotationHandler.SaveConfig)
	rotationGroup.Get("/configs", rotationHandler.ListConfigs)
	rotationGroup.Delete("/configs/:id", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), rotationHandler.DeleteConfig)

	// Valuation (protegido, solo lectura)
	valuationGroup := protected.Group("/valuation")
	valuationHandler := NewValuationHandler(deps.ValuationUC)
	valuationGroup.Get("/products/:id", valuationHandler.ValueProduct)
	valuationGroup.Get("/products/:id/plan", valuationHandler.Plan)

	// Reconciliation (protegido; las decisiones requieren admin/farmaceuta)
	reconGroup := protected.Group("/reconciliation")
	reconHandler := NewReconciliationHandler(deps.ReconciliationUC)
	reconGroup.Post("/sessions", reconHandler.Snapshot)
	reconGroup.Get("/sessions/:id/items", reconHandler.SessionItems)
	reconGroup.Post("/sessions/:id/close", reconHandler.CloseSession)
	reconGroup.Get("/pending", reconHandler.PendingQueue)
	reconGroup.Post("/items/:id/validate", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), reconHandler.Validate)
	reconGroup.Post("/items/:id/reject", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), reconHandler.Reject)
	reconGroup.Post("/items/:id/correct", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), reconHandler.Correct)
	reconGroup.Put("/items/:id", reconHandler.Annotate)

	// Alerts (protegido; umbrales solo admin/farmaceuta)
	alertsGroup := protected.Group("/alerts")
	alertHandler := NewAlertHandler(deps.AlertsUC)
	alertsGroup.Get("/stock", alertHandler.ListStockAlerts)
	alertsGroup.Get("/expiration", alertHandler.ListExpirationAlerts)
	alertsGroup.Get("/products/:id", alertHandler.ClassifyProduct)
	alertsGroup.Put("/thresholds", RequireRole(entity.RoleAdmin, entity.RoleFarmaceuta), alertHandler.SaveThreshold)
	alertsGroup.Get("/thresholds", alertHandler.ListThresholds)
}
