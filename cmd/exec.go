package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"waitline/config"
	"waitline/handlers"
	"waitline/monitoring"
	"waitline/security"
	"waitline/services"
	"waitline/utils"

	_ "waitline/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The average-wait override cache lives for the process lifetime and is
	// handed to every consumer explicitly.
	avgCache := services.NewAverageWaitTimeCache()

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(app, cfg.MetricsInterval)
	}

	// Initialize services
	repo := services.NewPBQueueRepository(app)
	staffService := services.NewStaffService(app)
	locationService := services.NewLocationService(app, cfg)
	notifier := services.NewNotificationService(pn)
	queueService := services.NewQueueService(repo, staffService, locationService, notifier, avgCache, monitor, cfg)
	displayService := services.NewDisplayService(redisClient, queueService, cfg.BoardCacheTTL)

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(app, queueService)
	kioskHandler := handlers.NewKioskHandler(app, displayService, locationService)
	adminHandler := handlers.NewAdminHandler(app, queueService, locationService, avgCache, redisClient)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background sweeping of late customers
	sweeper := services.NewLateSweeper(queueService, cfg.LateSweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// Staff-facing queue endpoints
		g := se.Router.Group("/api/v1")
		g.Bind(apis.RequireAuth())
		g.POST("/queues/{queueId}/entries", queueHandler.AddCustomer)
		g.POST("/queues/{queueId}/call-next", queueHandler.CallNext)
		g.POST("/entries/{entryId}/check-in", queueHandler.CheckIn)
		g.POST("/entries/{entryId}/complete", queueHandler.CompleteService)
		g.POST("/entries/{entryId}/cancel", queueHandler.Cancel)
		g.POST("/entries/{entryId}/no-show", queueHandler.MarkNoShow)
		g.GET("/entries/{entryId}/wait", queueHandler.GetEntryWait)

		// Kiosk endpoints authenticate with the per-location key instead
		kiosk := se.Router.Group("/api/v1/kiosk")
		kiosk.BindFunc(rateLimiter.QueueRateLimit())
		kiosk.BindFunc(rateLimiter.AntiBotMiddleware())
		kiosk.GET("/locations/{locationId}/board", kioskHandler.GetBoard)

		// Admin endpoints
		admin := se.Router.Group("/api/v1/admin")
		admin.Bind(apis.RequireSuperuserAuth())
		admin.POST("/queues/{queueId}/activate", adminHandler.Activate)
		admin.POST("/queues/{queueId}/deactivate", adminHandler.Deactivate)
		admin.POST("/queues/{queueId}/sweep-late", adminHandler.SweepLate)
		admin.POST("/queues/{queueId}/seed", adminHandler.Seed)
		admin.POST("/locations/{locationId}/average-wait", adminHandler.SetAverageWait)
		admin.POST("/locations/{locationId}/kiosk-key", adminHandler.RotateKioskKey)
		admin.GET("/dashboard", adminHandler.Dashboard)

		// Metrics
		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupQueueHooks(app, displayService)

		return se.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// setupQueueHooks keeps the kiosk board cache honest when queue records are
// edited through the admin UI instead of the queue API.
func setupQueueHooks(app *pocketbase.PocketBase, displayService *services.DisplayService) {
	app.OnRecordUpdateRequest("queues").BindFunc(func(e *core.RecordRequestEvent) error {
		locationID := e.Record.GetString("location")
		displayService.InvalidateBoard(e.Request.Context(), locationID)
		slog.Info("Invalidated board cache after queue update",
			"queueID", e.Record.Id,
			"locationID", locationID,
		)
		return e.Next()
	})

	app.OnRecordUpdateRequest("staff").BindFunc(func(e *core.RecordRequestEvent) error {
		locationID := e.Record.GetString("location")
		displayService.InvalidateBoard(e.Request.Context(), locationID)
		slog.Info("Invalidated board cache after staff update",
			"staffID", e.Record.Id,
			"locationID", locationID,
		)
		return e.Next()
	})
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
