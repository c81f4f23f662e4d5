package repository

import (
	"context"

	"communityhub/internal/cache"
	"communityhub/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository stores member feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	ListPublic(ctx context.Context) ([]models.Feedback, error)
	ListAll(ctx context.Context) ([]models.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a FeedbackRepository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	err := r.db.WithContext(ctx).Omit("User").Create(feedback).Error
	if err == nil && feedback.IsPublic {
		cache.InvalidatePublicFeedback(ctx)
	}
	return err
}

func (r *feedbackRepository) ListPublic(ctx context.Context) ([]models.Feedback, error) {
	var items []models.Feedback
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_public = ?", true).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *feedbackRepository) ListAll(ctx context.Context) ([]models.Feedback, error) {
	var items []models.Feedback
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}
