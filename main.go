package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"wanotify/config"
	"wanotify/middleware"
	"wanotify/routes"
	"wanotify/utils"
	"wanotify/worker"
)

func main() {
	logger := log.New(os.Stdout, "WANOTIFY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Gateway clients
	waClient := utils.NewWhatsAppClient(config.AppConfig.WhatsApp, logrus.StandardLogger())
	voiceClient := utils.NewVoiceClient(config.AppConfig.Voice, logrus.StandardLogger())

	// Initialize and start the dispatch worker
	dispatchWorker := worker.NewDispatchWorker(
		config.DB,
		waClient,
		log.New(os.Stdout, "DISPATCH: ", log.LstdFlags),
		time.Duration(config.AppConfig.DispatchInterval)*time.Second,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatchWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, waClient, voiceClient, dispatchWorker)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
