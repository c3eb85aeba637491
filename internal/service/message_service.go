package service

import (
	"context"
	"fmt"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/google/uuid"
)

type MessageService interface {
	Send(ctx context.Context, senderID uuid.UUID, input dto.CreateMessageInput) (*entity.Message, error)
	RoomHistory(ctx context.Context, roomID string) ([]*entity.Message, error)
	Conversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error)
}

type messageService struct {
	repo repository.MessageRepository
}

func NewMessageService(repo repository.MessageRepository) MessageService {
	return &messageService{repo: repo}
}

func (s *messageService) Send(ctx context.Context, senderID uuid.UUID, input dto.CreateMessageInput) (*entity.Message, error) {
	msgType := input.Type
	if msgType == "" {
		msgType = entity.MessageTypeChat
	}

	message := &entity.Message{
		RoomID:   input.RoomID,
		SenderID: senderID,
		Text:     input.Text,
		Type:     msgType,
	}

	if input.ReceiverID != nil {
		receiverID, err := uuid.Parse(*input.ReceiverID)
		if err != nil {
			return nil, fmt.Errorf("invalid receiver id: %w", apperror.ErrBadRequest)
		}
		message.ReceiverID = &receiverID
	}

	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageService) RoomHistory(ctx context.Context, roomID string) ([]*entity.Message, error) {
	return s.repo.FindByRoom(ctx, roomID)
}

func (s *messageService) Conversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error) {
	return s.repo.FindConversation(ctx, roomID, userA, userB)
}
