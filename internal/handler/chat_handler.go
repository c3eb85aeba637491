package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/service"
	"github.com/coursemarket/server/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const chatCooldown = 2 * time.Second

type ChatHandler struct {
	chat        service.ChatService
	messages    service.MessageService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewChatHandler(chat service.ChatService, messages service.MessageService, redisClient *redis.Client) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		messages:    messages,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// HandleWebSocket relays send_message frames to the assistant and writes the
// reply back as receive_message. Both sides of the exchange are persisted so
// the conversation survives reconnects.
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if h.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "chat is not configured"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	roomID := fmt.Sprintf("ai:%s", userID)
	ctx := c.Request.Context()

	frames := make(chan dto.ChatEnvelope)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(frames)
		for {
			var env dto.ChatEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			select {
			case frames <- env:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case env, ok := <-frames:
			if !ok {
				return
			}
			if env.Event != "send_message" {
				continue
			}
			text := strings.TrimSpace(env.Text)
			if text == "" {
				continue
			}

			if h.redisClient != nil {
				allowed, err := service.CheckAndSetRateLimit(ctx, h.redisClient, userID, "ai_chat", chatCooldown)
				if err == nil && !allowed {
					h.writeReply(conn, "You are sending messages too quickly. Please wait a moment.")
					continue
				}
			}

			h.persist(ctx, userID, roomID, text)

			reply, err := h.chat.Reply(ctx, text)
			if err != nil {
				log.Printf("AI reply failed: %v", err)
				reply = "Error: could not get response"
			}

			h.persist(ctx, userID, roomID, reply)

			if err := h.writeReply(conn, reply); err != nil {
				log.Printf("Failed to write message to websocket: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *ChatHandler) writeReply(conn *websocket.Conn, text string) error {
	return conn.WriteJSON(dto.ChatEnvelope{Event: "receive_message", Text: text})
}

func (h *ChatHandler) persist(ctx context.Context, senderID uuid.UUID, roomID, text string) {
	input := dto.CreateMessageInput{RoomID: roomID, Text: text, Type: entity.MessageTypeAI}
	if _, err := h.messages.Send(ctx, senderID, input); err != nil {
		log.Printf("Failed to persist chat message: %v", err)
	}
}
