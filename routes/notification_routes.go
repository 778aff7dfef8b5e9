package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jaujye/ocean-shopping-center-sub001/handlers"
	"github.com/jaujye/ocean-shopping-center-sub001/middleware"
)

func NotificationRoutes(app *fiber.App, h *handlers.NotificationHandler) {
	api := app.Group("/api/v1")

	notifications := api.Group("/notifications", middleware.Protected())
	notifications.Get("", h.GetUserNotifications)
	notifications.Get("/unread", h.GetUnreadNotifications)
	notifications.Get("/high-priority", h.GetHighPriorityNotifications)
	notifications.Get("/type/:type", h.GetNotificationsByType)
	notifications.Put("/read", h.MarkNotificationsAsRead)
	notifications.Put("/:notificationId/read", h.MarkNotificationAsRead)
	notifications.Delete("/:notificationId", h.DeleteNotification)

	notifications.Post("/user/:userId", middleware.AdminRequired(), h.SendNotification)
	notifications.Post("/bulk", middleware.AdminRequired(), h.SendBulkNotification)
}
