package repository

import (
	"context"

	"communityhub/internal/cache"
	"communityhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetOwnerID(ctx context.Context, id uint) (uint, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) ([]models.PostFile, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// hydrate preloads everything a feed entry shows.
func hydrate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Reactions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Comments.User")
}

// Create inserts the post and its file rows in one transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files := post.Files
		post.Files = nil
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		for i := range files {
			files[i].PostID = post.ID
		}
		if len(files) > 0 {
			if err := tx.Create(&files).Error; err != nil {
				return err
			}
		}
		post.Files = files
		return nil
	})
	if err == nil {
		cache.InvalidatePostsList(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := hydrate(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFound(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetOwnerID(ctx context.Context, id uint) (uint, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id", "user_id").First(&post, id).Error; err != nil {
		return 0, notFound(err, "Post", id)
	}
	return post.UserID, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := hydrate(r.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// Delete removes the post with its files, reactions and comments and
// returns the file rows so stored bytes can be cleaned up.
func (r *postRepository) Delete(ctx context.Context, id uint) ([]models.PostFile, error) {
	var files []models.PostFile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post := models.Post{ID: id}
		if err := tx.Where("post_id = ?", id).Find(&files).Error; err != nil {
			return err
		}
		res := tx.Select("Files", "Reactions", "Comments").Delete(&post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidatePostsList(ctx)
	return files, nil
}
