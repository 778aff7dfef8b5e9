package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jaujye/ocean-shopping-center-sub001/handlers"
	"github.com/jaujye/ocean-shopping-center-sub001/middleware"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	uploads := api.Group("/uploads", middleware.Protected())
	uploads.Get("/signature", handlers.GenerateUploadSignature)
}
