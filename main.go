package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"bqestimator/collections"
	"bqestimator/commands"
	"bqestimator/config"
	"bqestimator/handlers"
	"bqestimator/services"
)

func main() {
	app := pocketbase.New()

	var configPath string
	app.RootCmd.PersistentFlags().StringVar(&configPath, "estimate-config", config.DefaultPath(),
		"estimate settings file (rates, default columns, currency)")

	loadOptions := func() (services.EstimatorOptions, error) {
		return config.Load(configPath)
	}
	app.RootCmd.AddCommand(commands.NewExportCommand(app, loadOptions))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateStoredAmounts(app); err != nil {
			log.Printf("Warning: amount migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		est := services.NewEstimator(services.NewRecordStore(app), opts)

		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── Projects ─────────────────────────────────────────────
		se.Router.GET("/projects", handlers.HandleProjectList(est))
		se.Router.POST("/projects", handlers.HandleProjectCreate(est))

		// ── Project-scoped estimate routes ──────────────────────
		g := se.Router.Group("/projects/{projectId}/estimate")
		g.BindFunc(handlers.ProjectMiddleware(est))

		g.GET("", handlers.HandleEstimateView(est))
		g.GET("/rows", handlers.HandleEstimateRows(est))

		g.GET("/export/excel", handlers.HandleEstimateExport(est, services.FormatSpreadsheet))
		g.GET("/export/pdf", handlers.HandleEstimateExport(est, services.FormatDocument))

		g.POST("/items", handlers.HandleItemCreate(est))
		g.PATCH("/items/{itemId}", handlers.HandleItemPatch(est))
		g.DELETE("/items/{itemId}", handlers.HandleItemDelete(est))

		g.GET("/import/template", handlers.HandleImportTemplate())
		g.POST("/import", handlers.HandleEstimateImport(est))

		g.POST("/lock", handlers.HandleSetLocked(est, true))
		g.POST("/unlock", handlers.HandleSetLocked(est, false))

		// Redirect home to projects list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/projects")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
