package service

import (
	"context"

	"communityhub/internal/models"
	"communityhub/internal/repository"
)

type ReactionService struct {
	reactionRepo repository.ReactionRepository
}

func NewReactionService(reactionRepo repository.ReactionRepository) *ReactionService {
	return &ReactionService{reactionRepo: reactionRepo}
}

// AddReaction stores the reaction, or refreshes the timestamp of an identical one.
func (s *ReactionService) AddReaction(ctx context.Context, userID, postID uint, reactionType string) (*models.PostReaction, error) {
	if !models.IsValidReactionType(reactionType) {
		return nil, models.NewValidationError("Invalid reaction type")
	}
	reaction := &models.PostReaction{PostID: postID, UserID: userID, Type: reactionType}
	if err := s.reactionRepo.Upsert(ctx, reaction); err != nil {
		return nil, storeErr("Failed to add reaction", err)
	}
	return reaction, nil
}

// RemoveReaction deletes the caller's reaction of the given type; a missing
// one is fine, including types that could never have been stored.
func (s *ReactionService) RemoveReaction(ctx context.Context, userID, postID uint, reactionType string) error {
	if _, err := s.reactionRepo.Delete(ctx, postID, userID, reactionType); err != nil {
		return storeErr("Failed to remove reaction", err)
	}
	return nil
}
