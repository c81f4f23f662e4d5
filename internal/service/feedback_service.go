package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"communityhub/internal/cache"
	"communityhub/internal/mailer"
	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/validation"
)

const MaxFeedbackLen = 5000

type FeedbackService struct {
	feedbackRepo repository.FeedbackRepository
	mail         mailer.Mailer
	adminEmail   string
}

type CreateFeedbackInput struct {
	User     *models.User
	Rating   int
	Message  string
	IsPublic bool
}

func NewFeedbackService(feedbackRepo repository.FeedbackRepository, mail mailer.Mailer, adminEmail string) *FeedbackService {
	return &FeedbackService{feedbackRepo: feedbackRepo, mail: mail, adminEmail: adminEmail}
}

// Submit stores feedback and notifies the admin inbox. Delivery failures are only logged.
func (s *FeedbackService) Submit(ctx context.Context, in CreateFeedbackInput) (*models.Feedback, error) {
	if err := validation.ValidateRating(in.Rating); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if utf8.RuneCountInString(message) > MaxFeedbackLen {
		return nil, models.NewValidationError("Message too long (max 5000 characters)")
	}

	fb := &models.Feedback{
		UserID:   in.User.ID,
		Rating:   in.Rating,
		Message:  message,
		IsPublic: in.IsPublic,
	}
	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		return nil, storeErr("Failed to submit feedback", err)
	}

	if s.mail != nil && s.adminEmail != "" {
		notice := mailer.FeedbackNotice(s.adminEmail, in.User.Name, in.User.Email, fb.Rating, fb.Message)
		if err := s.mail.Send(ctx, notice); err != nil {
			middleware.Logger.WarnContext(ctx, "feedback notice failed", slog.String("error", err.Error()))
		}
	}
	return fb, nil
}

// ListPublic serves the public board from cache when possible.
func (s *FeedbackService) ListPublic(ctx context.Context) ([]models.PublicFeedback, error) {
	var out []models.PublicFeedback
	err := cache.Aside(ctx, cache.PublicFeedbackKey, &out, cache.PublicFeedbackTTL, func() error {
		items, err := s.feedbackRepo.ListPublic(ctx)
		if err != nil {
			return err
		}
		out = make([]models.PublicFeedback, 0, len(items))
		for _, f := range items {
			pf := models.PublicFeedback{ID: f.ID, Rating: f.Rating, Message: f.Message, CreatedAt: f.CreatedAt}
			if f.User != nil {
				pf.Author = &models.PublicAuthor{ID: f.User.ID, Name: f.User.Name, Country: f.User.Country}
			}
			out = append(out, pf)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("Failed to fetch feedback", err)
	}
	if out == nil {
		out = []models.PublicFeedback{}
	}
	return out, nil
}

func (s *FeedbackService) ListAll(ctx context.Context) ([]models.Feedback, error) {
	items, err := s.feedbackRepo.ListAll(ctx)
	if err != nil {
		return nil, storeErr("Failed to fetch feedback", err)
	}
	return items, nil
}
