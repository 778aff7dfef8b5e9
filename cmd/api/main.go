package main

import (
	"log"
	"time"

	config "github.com/jaujye/ocean-shopping-center-sub001/configs"
	"github.com/jaujye/ocean-shopping-center-sub001/database"
	"github.com/jaujye/ocean-shopping-center-sub001/handlers"
	"github.com/jaujye/ocean-shopping-center-sub001/jobs"
	"github.com/jaujye/ocean-shopping-center-sub001/logger"
	"github.com/jaujye/ocean-shopping-center-sub001/routes"
	"github.com/jaujye/ocean-shopping-center-sub001/services"
	"github.com/jaujye/ocean-shopping-center-sub001/store"
	ws "github.com/jaujye/ocean-shopping-center-sub001/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	zlog, err := logger.New(logger.Config{Development: config.Config("APP_ENV") != "production"})
	if err != nil {
		log.Fatalf("🔥 Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	database.ConnectDB()
	database.Migrate()
	database.SeedSystemUser()

	hub := ws.NewHub(zlog)
	messageStore := store.NewMessageStore(database.DB)
	notificationStore := store.NewNotificationStore(database.DB)
	userDirectory := store.NewUserDirectory(database.DB)

	messageService := services.NewMessageService(messageStore, userDirectory, hub, zlog)
	notificationService := services.NewNotificationService(notificationStore, userDirectory, hub, zlog)

	reconciler := jobs.NewReconciler(notificationService, zlog)
	c := cron.New()
	c.AddFunc("*/1 * * * *", reconciler.RetryPendingNotifications)
	c.AddFunc("*/10 * * * *", reconciler.PurgeExpiredNotifications)
	go c.Start()
	zlog.Infow("reconciler schedules registered")

	app := fiber.New(fiber.Config{
		AppName:       "Ocean Shopping Center Messaging",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			zlog.Errorw("request failed", "error", err, "path", c.Path(), "method", c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	messagingHandler := handlers.NewMessagingHandler(messageService, hub, zlog)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	routes.AuthRoutes(app)
	routes.MessagingRoutes(app, messagingHandler)
	routes.NotificationRoutes(app, notificationHandler)
	routes.UploadRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	zlog.Infof("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		zlog.Fatalf("🔥 Server failed to start: %v", err)
	}
}
