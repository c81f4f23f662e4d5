package database

import "communityhub/internal/models"

// PersistentModels returns the schema-managed GORM models in dependency order.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Post{},
		&models.PostFile{},
		&models.PostReaction{},
		&models.Comment{},
		&models.FreeServer{},
		&models.ServerGrant{},
		&models.Feedback{},
	}
}
