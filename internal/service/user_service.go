package service

import (
	"context"
	"log/slog"
	"strings"

	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/storage"
	"communityhub/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	avatars    *AvatarService
	files      storage.FileStore
	ownerEmail string
}

type UpdateProfileInput struct {
	UserID  uint
	Name    string
	Country string
}

// NewUserService wires user operations; ownerEmail names the bootstrap admin
// who can be neither deleted nor demoted.
func NewUserService(userRepo repository.UserRepository, files storage.FileStore, ownerEmail string) *UserService {
	return &UserService{
		userRepo:   userRepo,
		avatars:    NewAvatarService(files),
		files:      files,
		ownerEmail: repository.NormalizeEmail(ownerEmail),
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	return user, storeErr("Failed to fetch user", err)
}

func (s *UserService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	return s.userRepo.IsAdmin(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, storeErr("Failed to update profile", err)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = name
	}
	if in.Country != "" {
		country, err := validation.NormalizeCountry(in.Country)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Country = country
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"name":    user.Name,
		"country": user.Country,
	}); err != nil {
		return nil, storeErr("Failed to update profile", err)
	}
	return user, nil
}

// UpdateProfilePicture stores a new avatar and drops the previous one.
func (s *UserService) UpdateProfilePicture(ctx context.Context, userID uint, contentType string, content []byte) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr("Failed to update profile picture", err)
	}

	url, err := s.avatars.Store(ctx, userID, contentType, content)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]any{"profile_picture": url}); err != nil {
		_ = s.avatars.Remove(ctx, url)
		return nil, storeErr("Failed to update profile picture", err)
	}

	if user.ProfilePicture != nil {
		if err := s.avatars.Remove(ctx, *user.ProfilePicture); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove old avatar", slog.String("error", err.Error()))
		}
	}
	user.ProfilePicture = &url
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return storeErr("Failed to change password", err)
	}
	if !checkPassword(user.Password, current) {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return storeErr("Failed to change password", s.userRepo.UpdateFields(ctx, userID, map[string]any{"password": hash}))
}

// DeleteAccount removes the user with all they own, then their stored files.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return storeErr("Failed to delete account", err)
	}
	files, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return storeErr("Failed to delete account", err)
	}

	for _, f := range files {
		if err := s.files.Remove(ctx, f.Filename); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove stored attachment",
				slog.String("file", f.Filename), slog.String("error", err.Error()))
		}
	}
	if user.ProfilePicture != nil {
		_ = s.avatars.Remove(ctx, *user.ProfilePicture)
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, storeErr("Failed to fetch users", err)
	}
	return users, nil
}

// DeleteUser is the admin removal path.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.NewForbiddenError("You cannot delete your own account from the admin panel")
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return storeErr("Failed to delete user", err)
	}
	if s.isOwner(target) {
		return models.NewForbiddenError("Cannot delete the owner admin")
	}
	return s.DeleteAccount(ctx, targetID)
}

// ToggleAdmin flips the target's admin flag.
func (s *UserService) ToggleAdmin(ctx context.Context, targetID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, storeErr("Failed to update admin status", err)
	}
	if s.isOwner(user) {
		return nil, models.NewForbiddenError("Cannot modify owner admin status")
	}

	user.IsAdmin = !user.IsAdmin
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{"is_admin": user.IsAdmin}); err != nil {
		return nil, storeErr("Failed to update admin status", err)
	}
	return user, nil
}

func (s *UserService) isOwner(u *models.User) bool {
	return s.ownerEmail != "" && u.Email == s.ownerEmail
}
