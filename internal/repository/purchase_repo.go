package repository

import (
	"context"

	"github.com/coursemarket/server/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Purchase, error)
	FindPaid(ctx context.Context, userID, contentID uuid.UUID) (*entity.Purchase, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Purchase, error)
	Update(ctx context.Context, purchase *entity.Purchase) error
	CountPaidByContent(ctx context.Context, contentID uuid.UUID) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *purchaseRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Purchase, error) {
	var purchase entity.Purchase
	if err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindPaid(ctx context.Context, userID, contentID uuid.UUID) (*entity.Purchase, error) {
	var purchase entity.Purchase
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND status = ?", userID, contentID, entity.PurchasePaid).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Purchase, error) {
	var purchases []*entity.Purchase
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepository) Update(ctx context.Context, purchase *entity.Purchase) error {
	return r.db.WithContext(ctx).Save(purchase).Error
}

func (r *purchaseRepository) CountPaidByContent(ctx context.Context, contentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Purchase{}).
		Where("content_id = ? AND status = ?", contentID, entity.PurchasePaid).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
