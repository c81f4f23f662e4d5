package repository

import (
	"context"
	"time"

	"communityhub/internal/cache"
	"communityhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository stores per-user post reactions.
type ReactionRepository interface {
	Upsert(ctx context.Context, reaction *models.PostReaction) error
	Delete(ctx context.Context, postID, userID uint, reactionType string) (bool, error)
}

type reactionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReactionRepository creates a ReactionRepository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db, now: time.Now}
}

// Upsert inserts the reaction or, when the (post, user, type) row exists,
// refreshes its timestamp in the same statement. The stored row is loaded back into reaction.
func (r *reactionRepository) Upsert(ctx context.Context, reaction *models.PostReaction) error {
	reaction.ID = 0
	reaction.CreatedAt = r.now().UTC()

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
	}).Create(reaction).Error
	if err != nil {
		if IsForeignKeyViolation(err) {
			return models.NewNotFoundError("Post", reaction.PostID)
		}
		return err
	}

	stored := models.PostReaction{}
	if err := db.Where("post_id = ? AND user_id = ? AND type = ?",
		reaction.PostID, reaction.UserID, reaction.Type).First(&stored).Error; err != nil {
		return err
	}
	*reaction = stored
	cache.InvalidatePostsList(ctx)
	return nil
}

// Delete removes the matching reaction and reports whether a row existed.
func (r *reactionRepository) Delete(ctx context.Context, postID, userID uint, reactionType string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND type = ?", postID, userID, reactionType).
		Delete(&models.PostReaction{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		cache.InvalidatePostsList(ctx)
	}
	return res.RowsAffected > 0, nil
}
