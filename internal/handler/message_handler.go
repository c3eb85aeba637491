package handler

import (
	"net/http"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/service"
	"github.com/coursemarket/server/pkg/response"
	"github.com/coursemarket/server/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validator.FirstValidationError(err)})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), senderID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) RoomHistory(c *gin.Context) {
	msgs, err := h.service.RoomHistory(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Conversation(c *gin.Context) {
	userA, err := uuid.Parse(c.Param("userId1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}
	userB, err := uuid.Parse(c.Param("userId2"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}

	msgs, err := h.service.Conversation(c.Request.Context(), c.Param("roomId"), userA, userB)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}
