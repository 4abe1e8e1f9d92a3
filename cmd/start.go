package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"nursery-sync/core/config"
	"nursery-sync/core/database"
	"nursery-sync/core/loader"
	"nursery-sync/core/logger"
	"nursery-sync/core/metrics"
	"nursery-sync/core/middleware/auth"
	"nursery-sync/core/middleware/rayid"
	"nursery-sync/core/storage"

	"nursery-sync/feature/events"
	"nursery-sync/feature/events/models"
	"nursery-sync/feature/sync"
	"nursery-sync/feature/sync/client"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "nursery-sync/docs/swagger"
)

// @title Nursery Sync API
// @version 1.0
// @description API for reconciling and syncing childcare activity records.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the event store
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := models.Migrate(db); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		// 4. Raw-capture archive (optional)
		var archive *events.Archive
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archive = events.NewArchive(store, cfg.Storage.Bucket)
			logg.Info("Raw-capture archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		// 5. Services
		eventSvc := events.NewService(db, logg, archive, cfg.Reconcile)
		syncSvc := sync.NewService(
			eventSvc,
			logg,
			sync.NewTracker(db),
			sync.NewRunner(),
			client.NewBridgeClient(cfg.Source),
			client.NewBridgeClient(cfg.Target),
		)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(events.NewFeature(eventSvc, logg))
		mgr.Register(sync.NewFeature(syncSvc, logg))

		// Middleware Registration
		// RayID must be first to trace everything.
		app.Use(rayid.New())

		// Request logging with Zap + RayID.
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger documentation (public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Auth protects the API surface.
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// Load features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// Metrics listener on its own port
		if cfg.Metrics.Enabled {
			go func() {
				logg.Info("Starting metrics listener", zap.String("port", cfg.Metrics.Port))
				if err := metrics.Serve(cfg.Metrics); err != nil {
					logg.Error("Metrics listener stopped", zap.Error(err))
				}
			}()
		}

		// Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
