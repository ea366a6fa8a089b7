// Package server assembles the fiber app: middleware, error mapping and routes.
package server

import (
	"errors"
	"strings"
	"time"

	"asset-tracker/internal/apperr"
	"asset-tracker/internal/assets"
	"asset-tracker/internal/assettypes"
	"asset-tracker/internal/auth"
	"asset-tracker/internal/backup"
	"asset-tracker/internal/cache"
	"asset-tracker/internal/config"
	"asset-tracker/internal/dashboard"
	"asset-tracker/internal/database"
	"asset-tracker/internal/lifecycle"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/models"
	"asset-tracker/internal/notifications"
	"asset-tracker/internal/oplog"
	"asset-tracker/internal/reports"
	"asset-tracker/internal/response"
	"asset-tracker/internal/stockin"
	"asset-tracker/internal/stockout"
	"asset-tracker/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Config  *config.Config
	Store   *database.Store
	Log     *logrus.Logger
	Metrics *metrics.Metrics
	Cache   cache.Cache
	Backups *backup.Service
	Notify  *notifications.Service
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "asset-tracker",
		ErrorHandler: ErrorHandler(d.Log),
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(requestLogger(d.Log))
	app.Use(recover.New())

	corsOrigins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))
	app.Use(d.Metrics.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	assetSvc := assets.NewService(d.Store, d.Log)
	lifecycleSvc := lifecycle.NewService(d.Store, d.Log, d.Metrics)
	stockInSvc := stockin.NewService(d.Store, d.Log, d.Metrics)
	stockOutSvc := stockout.NewService(d.Store, d.Log, d.Metrics)
	typeSvc := assettypes.NewService(d.Store)
	userSvc := users.NewService(d.Store, d.Log)
	dashSvc := dashboard.NewService(d.Store, d.Cache, d.Config.CacheTTL, stockInSvc, stockOutSvc, d.Log)
	reportSvc := reports.NewService(d.Store, assetSvc)

	api := app.Group("/api")

	// Public
	api.Get("/health", healthHandler(d.Store))
	api.Post("/auth/login", auth.LoginHandler(d.Store, d.Config))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Config.JWTSecret))
	protected.Use(dashboard.InvalidateOnWrite(dashSvc))

	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/status", auth.StatusHandler(d.Store))

	// Assets
	protected.Get("/assets", assets.ListAssetsHandler(assetSvc))
	protected.Post("/assets", assets.CreateAssetHandler(assetSvc))
	protected.Get("/assets/code/:code", assets.GetAssetByCodeHandler(assetSvc))
	protected.Get("/assets/:id", assets.GetAssetHandler(assetSvc))
	protected.Put("/assets/:id", assets.UpdateAssetHandler(assetSvc))
	protected.Delete("/assets/:id", adminOnly, assets.DeleteAssetHandler(assetSvc))
	protected.Get("/assets/:id/operations", oplog.ListAssetOperationsHandler(d.Store))
	protected.Post("/assets/:id/assign", assets.AssignAssetHandler(stockOutSvc))
	protected.Post("/assets/:id/return", assets.ReturnAssetHandler(lifecycleSvc))
	protected.Post("/assets/:id/scrap", assets.ScrapAssetHandler(lifecycleSvc))

	// Asset types
	protected.Get("/asset-types", assettypes.ListAssetTypesHandler(typeSvc))
	protected.Get("/asset-types/:id", assettypes.GetAssetTypeHandler(typeSvc))
	protected.Post("/asset-types", adminOnly, assettypes.CreateAssetTypeHandler(typeSvc))
	protected.Put("/asset-types/:id", adminOnly, assettypes.UpdateAssetTypeHandler(typeSvc))
	protected.Delete("/asset-types/:id", adminOnly, assettypes.DeleteAssetTypeHandler(typeSvc))

	// Users
	protected.Get("/users/current", users.CurrentUserHandler(userSvc))
	protected.Get("/users", adminOnly, users.ListUsersHandler(userSvc))
	protected.Post("/users", adminOnly, users.CreateUserHandler(userSvc))
	protected.Put("/users/:username", adminOnly, users.UpdateUserHandler(userSvc))
	protected.Delete("/users/:username", adminOnly, users.DeleteUserHandler(userSvc))

	// Stock ledgers
	protected.Post("/stock-in", stockin.CreateStockInHandler(stockInSvc))
	protected.Get("/stock-in", stockin.ListStockInHandler(stockInSvc))
	protected.Get("/stock-in/:id", stockin.GetStockInHandler(stockInSvc))
	protected.Post("/stock-out", stockout.CreateStockOutHandler(stockOutSvc))
	protected.Get("/stock-out", stockout.ListStockOutHandler(stockOutSvc))
	protected.Get("/stock-out/:id", stockout.GetStockOutHandler(stockOutSvc))

	// Dashboard & reports
	protected.Get("/dashboard", dashboard.SummaryHandler(dashSvc))
	protected.Get("/dashboard/trends", dashboard.TrendsHandler(dashSvc))
	protected.Get("/reports/statistics", reports.StatisticsHandler(reportSvc))
	protected.Get("/reports/assets", reports.ExportAssetsHandler(reportSvc))
	protected.Get("/reports/transactions", reports.ExportTransactionsHandler(reportSvc))

	// Notifications
	protected.Get("/notifications", notifications.ListUnreadHandler(d.Notify))
	protected.Put("/notifications/read-all", notifications.MarkAllReadHandler(d.Notify))
	protected.Put("/notifications/:id/read", notifications.MarkReadHandler(d.Notify))
	protected.Delete("/notifications/:id", notifications.DeleteHandler(d.Notify))

	// Backup
	protected.Get("/backup", adminOnly, backup.ListBackupsHandler(d.Backups))
	protected.Post("/backup", adminOnly, backup.CreateBackupHandler(d.Backups))
	protected.Post("/backup/:name/restore", adminOnly, backup.RestoreBackupHandler(d.Backups))

	return app
}

// ErrorHandler turns every error into the JSON envelope. Internal details
// stay in the log.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			if ae.Kind == apperr.KindInternal {
				log.WithError(err).WithField("path", c.Path()).Error("request failed")
				return response.Error(c, ae.Status(), "internal server error")
			}
			return response.Error(c, ae.Status(), ae.Message)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, fe.Message)
		}

		log.WithError(err).WithField("path", c.Path()).Error("unexpected error")
		return response.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// requestLogger renders errors itself so the logged status is the one sent.
func requestLogger(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start).String(),
		}
		if p, ok := auth.FromCtx(c); ok {
			fields["user_id"] = p.ID
		}
		log.WithFields(fields).Info("request")
		return nil
	}
}

func healthHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.Ping(); err != nil {
			return apperr.Internal("database unreachable", err)
		}
		return response.OK(c, fiber.Map{"status": "ok"})
	}
}
