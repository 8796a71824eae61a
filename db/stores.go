package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"playlater/models"
)

// PlaythroughStore adapts the gorm handle to the lifecycle engine's store
// contract. Every Save/Delete commits exactly one record; the bulk engine's
// per-item isolation depends on no wider transaction being introduced here.
type PlaythroughStore struct {
	db *gorm.DB
}

func NewPlaythroughStore(db *gorm.DB) *PlaythroughStore {
	return &PlaythroughStore{db: db}
}

func (s *PlaythroughStore) GetOwned(ctx context.Context, userID, id string) (*models.Playthrough, error) {
	var pt models.Playthrough
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&pt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (s *PlaythroughStore) Save(ctx context.Context, pt *models.Playthrough) error {
	return s.db.WithContext(ctx).Save(pt).Error
}

func (s *PlaythroughStore) Delete(ctx context.Context, pt *models.Playthrough) error {
	return s.db.WithContext(ctx).Delete(pt).Error
}

// CollectionStore adapts the gorm handle to the collection engine's store
// contract, with the same one-record-per-commit rule.
type CollectionStore struct {
	db *gorm.DB
}

func NewCollectionStore(db *gorm.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

func (s *CollectionStore) GetOwned(ctx context.Context, userID, id string) (*models.CollectionItem, error) {
	var item models.CollectionItem
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CollectionStore) Save(ctx context.Context, item *models.CollectionItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *CollectionStore) Delete(ctx context.Context, item *models.CollectionItem) error {
	return s.db.WithContext(ctx).Delete(item).Error
}

func (s *CollectionStore) PlaythroughCount(ctx context.Context, collectionID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Playthrough{}).
		Where("collection_id = ?", collectionID).Count(&count).Error
	return count, err
}
