package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"communityhub/internal/models"
	"communityhub/internal/repository"
)

const MaxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// CreateComment persists the comment; a missing post surfaces as NotFound.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storeErr("Failed to add comment", err)
	}
	return comment, nil
}

// DeleteComment removes a comment outright. Callers check admin rights.
func (s *CommentService) DeleteComment(ctx context.Context, commentID uint) error {
	return storeErr("Failed to delete comment", s.commentRepo.Delete(ctx, commentID))
}
