package repository

import (
	"context"

	"github.com/coursemarket/server/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentFilter scopes both the page query and the count; the two always
// share one predicate so pagination metadata stays consistent.
type ContentFilter struct {
	OwnerID      *uuid.UUID
	ApprovedOnly bool
}

type ContentRepository interface {
	Create(ctx context.Context, content *entity.Content) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Content, error)
	FindPage(ctx context.Context, filter ContentFilter, offset, limit int) ([]*entity.Content, int64, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Content, error)
	Update(ctx context.Context, content *entity.Content) error
	ReplaceMedia(ctx context.Context, contentID uuid.UUID, media []entity.MediaAsset) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) Create(ctx context.Context, content *entity.Content) error {
	return r.db.WithContext(ctx).Create(content).Error
}

func (r *contentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Content, error) {
	var content entity.Content
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Owner.Role").
		Preload("Media").
		Where("id = ?", id).
		First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *contentRepository) FindPage(ctx context.Context, filter ContentFilter, offset, limit int) ([]*entity.Content, int64, error) {
	var items []*entity.Content
	var total int64

	query := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Owner.Role").
		Preload("Media")

	if filter.OwnerID != nil {
		query = query.Where("created_by = ?", *filter.OwnerID)
	}
	if filter.ApprovedOnly {
		query = query.Where("is_approved = ?", true)
	}

	if err := query.Model(&entity.Content{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *contentRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Content, error) {
	var items []*entity.Content
	if err := r.db.WithContext(ctx).
		Preload("Media").
		Where("created_by = ?", ownerID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentRepository) Update(ctx context.Context, content *entity.Content) error {
	return r.db.WithContext(ctx).Save(content).Error
}

func (r *contentRepository) ReplaceMedia(ctx context.Context, contentID uuid.UUID, media []entity.MediaAsset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentID).Delete(&entity.MediaAsset{}).Error; err != nil {
			return err
		}
		for i := range media {
			media[i].ContentID = contentID
		}
		return tx.Create(&media).Error
	})
}

func (r *contentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", id).Delete(&entity.MediaAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Content{}, "id = ?", id).Error
	})
}

func (r *contentRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&entity.Content{}).
			Where("created_by = ?", ownerID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("content_id IN ?", ids).Delete(&entity.MediaAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Content{}, "id IN ?", ids).Error
	})
}
