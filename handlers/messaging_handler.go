package handlers

import (
	"errors"
	"fmt"
	"strconv"

	config "github.com/jaujye/ocean-shopping-center-sub001/configs"
	"github.com/jaujye/ocean-shopping-center-sub001/services"
	"github.com/jaujye/ocean-shopping-center-sub001/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessagingHandler struct {
	messages *services.MessageService
	hub      *websocket.Hub
	log      *zap.SugaredLogger
}

func NewMessagingHandler(messages *services.MessageService, hub *websocket.Hub, log *zap.SugaredLogger) *MessagingHandler {
	return &MessagingHandler{messages: messages, hub: hub, log: log}
}

func (h *MessagingHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req services.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.messages.SendMessage(userID, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *MessagingHandler) GetUserConversations(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	summaries, err := h.messages.GetUserConversations(userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(summaries)
}

func (h *MessagingHandler) GetConversationHistory(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "50"))

	messages, err := h.messages.GetConversationHistory(userID, conversationID, page, pageSize)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(messages)
}

func (h *MessagingHandler) MarkMessageAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	resp, err := h.messages.MarkMessageAsRead(userID, messageID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

func (h *MessagingHandler) MarkConversationAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	count, err := h.messages.MarkConversationAsRead(userID, conversationID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"marked_read": count})
}

func (h *MessagingHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message ID"})
	}

	resp, err := h.messages.DeleteMessage(userID, messageID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(resp)
}

type systemMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateSystemMessage appends a platform announcement to a conversation.
// Admin only; the row is authored by the reserved system sender.
func (h *MessagingHandler) CreateSystemMessage(c *fiber.Ctx) error {
	conversationID, err := uuid.Parse(c.Params("conversationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	var req systemMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.messages.CreateSystemMessage(conversationID, req.Content)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsSendPayload struct {
	ReceiverID     string `json:"receiver_id"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// ServeWs authenticates the socket with an auth frame, registers it in the
// hub and then accepts send frames until the peer goes away.
func (h *MessagingHandler) ServeWs(c *websocketcontrib.Conn) {
	var authMsg wsAuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		h.log.Warnw("websocket auth failed: invalid or missing auth frame", "error", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		h.log.Warnw("websocket auth failed: invalid token", "error", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	userID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		h.log.Warnw("websocket auth failed: invalid user id", "error", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	h.hub.Register(userID, c)
	defer func() {
		h.hub.Unregister(userID, c)
		c.Close()
	}()

	for {
		var payload wsSendPayload
		if err := c.ReadJSON(&payload); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				h.log.Infow("websocket closed", "user_id", userID, "error", err)
			} else {
				h.log.Warnw("websocket read error", "user_id", userID, "error", err)
			}
			break
		}

		receiverID, err := uuid.Parse(payload.ReceiverID)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "Invalid receiver ID"})
			continue
		}
		req := services.SendMessageRequest{
			ReceiverID: receiverID,
			Content:    payload.Content,
		}
		if payload.ConversationID != "" {
			conversationID, err := uuid.Parse(payload.ConversationID)
			if err != nil {
				_ = c.WriteJSON(fiber.Map{"error": "Invalid conversation ID"})
				continue
			}
			req.ConversationID = &conversationID
		}

		resp, err := h.messages.SendMessage(userID, req)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": err.Error()})
			continue
		}
		_ = c.WriteJSON(resp)
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
