// Package bootstrap wires process-level dependencies for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"communityhub/internal/cache"
	"communityhub/internal/config"
	"communityhub/internal/database"
	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/seed"
	"communityhub/internal/service"
	"communityhub/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	defaultAdminName    = "Admin"
	defaultAdminCountry = "US"
)

// Options control runtime initialization behavior.
type Options struct {
	// InventoryPath, when set, loads a YAML server inventory after connecting.
	InventoryPath string
}

// InitRuntime connects to DB and Redis, ensures the owner admin and
// optionally loads the server inventory.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap owner admin: %w", err)
	}

	if opts.InventoryPath != "" {
		inv, err := seed.LoadInventory(opts.InventoryPath)
		if err != nil {
			return nil, nil, err
		}
		if _, err := seed.ApplyInventory(ctx, db, inv); err != nil {
			return nil, nil, fmt.Errorf("failed to apply server inventory: %w", err)
		}
	}

	return db, r, nil
}

// EnsureAdmin creates the ADMIN_EMAIL account or promotes an existing one.
// An existing account keeps its password. Nothing happens without ADMIN_EMAIL.
func EnsureAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	email := repository.NormalizeEmail(cfg.AdminEmail)
	if email == "" {
		return nil
	}
	log := middleware.Component("bootstrap")
	users := repository.NewUserRepository(db)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin && existing.IsVerified {
			return nil
		}
		if err := users.UpdateFields(ctx, existing.ID, map[string]any{
			"is_admin":    true,
			"is_verified": true,
		}); err != nil {
			return err
		}
		log.Info("owner admin promoted", slog.String("email", email))
		return nil
	case !models.IsCode(err, models.CodeNotFound):
		return err
	}

	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set to create %s", email)
	}
	if err := validation.ValidatePassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	hash, err := service.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = defaultAdminName
	}
	admin := &models.User{
		Name:       name,
		Email:      email,
		Password:   hash,
		Country:    defaultAdminCountry,
		IsVerified: true,
		IsAdmin:    true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("owner admin created", slog.String("email", email), slog.Uint64("id", uint64(admin.ID)))
	return nil
}
