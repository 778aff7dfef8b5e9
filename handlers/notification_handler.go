package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jaujye/ocean-shopping-center-sub001/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// SendNotification targets a single user. Admin only; customer-facing
// notifications originate from the platform, not from other customers.
func (h *NotificationHandler) SendNotification(c *fiber.Ctx) error {
	targetUserID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req services.SendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.notifications.SendNotification(targetUserID, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *NotificationHandler) SendBulkNotification(c *fiber.Ctx) error {
	var req services.BulkNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	created, err := h.notifications.SendBulkNotification(req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *NotificationHandler) GetUserNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))

	notifications, err := h.notifications.GetUserNotifications(userID, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(notifications)
}

func (h *NotificationHandler) GetUnreadNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.notifications.GetUnreadNotifications(userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(notifications)
}

func (h *NotificationHandler) GetNotificationsByType(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.notifications.GetNotificationsByType(userID, c.Params("type"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(notifications)
}

func (h *NotificationHandler) GetHighPriorityNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.notifications.GetHighPriorityNotifications(userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(notifications)
}

func (h *NotificationHandler) MarkNotificationAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	notificationID, err := uuid.Parse(c.Params("notificationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	resp, err := h.notifications.MarkNotificationAsRead(userID, notificationID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

type bulkReadRequest struct {
	NotificationIDs []uuid.UUID `json:"notification_ids" validate:"required"`
}

func (h *NotificationHandler) MarkNotificationsAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bulkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	count, err := h.notifications.MarkNotificationsAsRead(userID, req.NotificationIDs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"marked_read": count})
}

func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	notificationID, err := uuid.Parse(c.Params("notificationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	if err := h.notifications.DeleteNotification(userID, notificationID); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
