package repository

import (
	"context"

	"github.com/coursemarket/server/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindByRoom(ctx context.Context, roomID string) ([]*entity.Message, error)
	FindConversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByRoom(ctx context.Context, roomID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) FindConversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userA, userB).
				Or("sender_id = ? AND receiver_id = ?", userB, userA),
		).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
