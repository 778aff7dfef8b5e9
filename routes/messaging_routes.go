package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jaujye/ocean-shopping-center-sub001/handlers"
	"github.com/jaujye/ocean-shopping-center-sub001/middleware"
)

func MessagingRoutes(app *fiber.App, h *handlers.MessagingHandler) {
	api := app.Group("/api/v1")

	messages := api.Group("/messages", middleware.Protected())
	messages.Post("", h.SendMessage)
	messages.Put("/:messageId/read", h.MarkMessageAsRead)
	messages.Delete("/:messageId", h.DeleteMessage)

	conversations := api.Group("/conversations", middleware.Protected())
	conversations.Get("", h.GetUserConversations)
	conversations.Get("/:conversationId/messages", h.GetConversationHistory)
	conversations.Put("/:conversationId/read", h.MarkConversationAsRead)
	conversations.Post("/:conversationId/system", middleware.AdminRequired(), h.CreateSystemMessage)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(h.ServeWs))
}
