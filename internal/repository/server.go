package repository

import (
	"context"

	"communityhub/internal/models"

	"gorm.io/gorm"
)

// ServerRepository persists free servers and the grants handed to users.
type ServerRepository interface {
	Create(ctx context.Context, server *models.FreeServer) error
	GetByID(ctx context.Context, id uint) (*models.FreeServer, error)
	ListActive(ctx context.Context) ([]models.FreeServer, error)
	Deactivate(ctx context.Context, id uint) error
	CreateGrant(ctx context.Context, grant *models.ServerGrant) error
	ListGrantsByUser(ctx context.Context, userID uint) ([]models.ServerGrant, error)
}

type serverRepository struct {
	db *gorm.DB
}

// NewServerRepository creates a ServerRepository.
func NewServerRepository(db *gorm.DB) ServerRepository {
	return &serverRepository{db: db}
}

func (r *serverRepository) Create(ctx context.Context, server *models.FreeServer) error {
	return r.db.WithContext(ctx).Create(server).Error
}

func (r *serverRepository) GetByID(ctx context.Context, id uint) (*models.FreeServer, error) {
	var server models.FreeServer
	if err := r.db.WithContext(ctx).First(&server, id).Error; err != nil {
		return nil, notFound(err, "Server", id)
	}
	return &server, nil
}

func (r *serverRepository) ListActive(ctx context.Context) ([]models.FreeServer, error) {
	var servers []models.FreeServer
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&servers).Error
	return servers, err
}

// Deactivate hides a server from listings and generation; existing grants keep it.
func (r *serverRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.FreeServer{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Server", id)
	}
	return nil
}

func (r *serverRepository) CreateGrant(ctx context.Context, grant *models.ServerGrant) error {
	return r.db.WithContext(ctx).Omit("Server").Create(grant).Error
}

// ListGrantsByUser returns the user's grant history newest first with server details.
func (r *serverRepository) ListGrantsByUser(ctx context.Context, userID uint) ([]models.ServerGrant, error) {
	var grants []models.ServerGrant
	err := r.db.WithContext(ctx).
		Preload("Server").
		Where("user_id = ?", userID).
		Order("generated_at DESC, id DESC").
		Find(&grants).Error
	return grants, err
}
