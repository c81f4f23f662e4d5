// Package seed provides helpers to create demo data for the community hub
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"communityhub/internal/middleware"
	"communityhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded user.
const DefaultPassword = "password123"

var countries = []string{"US", "GB", "DE", "FR", "NG", "IN", "BR", "JP", "CA", "AU"}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hash   string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) password() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hash == "" {
		h, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.hash = string(h)
	}
	return f.hash
}

// BuildUser constructs a verified sample user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Name:       first + " " + last,
		Email:      strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, last, gofakeit.Number(100, 9999))),
		Password:   f.password(),
		Country:    countries[rand.IntN(len(countries))],
		IsVerified: true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		middleware.Component("seed").Debug("dry-run user", slog.String("email", user.Email))
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with a created_at spread over MaxDays.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	post := &models.Post{
		UserID:      user.ID,
		Content:     gofakeit.Paragraph(1, 3, 12, "\n"),
		IsAnonymous: rand.Float32() < 0.15,
	}
	back := time.Duration(rand.IntN(maxDays))*24*time.Hour +
		time.Duration(rand.IntN(24))*time.Hour +
		time.Duration(rand.IntN(60))*time.Minute
	post.CreatedAt = time.Now().Add(-back)
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		return nil
	}
	return f.db.CreateInBatches(posts, 200).Error
}

// CreateComment persists a short comment from user on post.
func (f *Factory) CreateComment(post *models.Post, user *models.User) (*models.Comment, error) {
	c := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Content:   gofakeit.Sentence(rand.IntN(12) + 3),
		CreatedAt: post.CreatedAt.Add(time.Duration(rand.IntN(48)+1) * time.Hour),
	}
	if f.opts.DryRun {
		f.nextID++
		c.ID = f.nextID
		return c, nil
	}
	return c, f.db.Create(c).Error
}

// CreateReaction persists a reaction, ignoring (post, user, type) duplicates.
func (f *Factory) CreateReaction(post *models.Post, user *models.User, reactionType string) error {
	if f.opts.DryRun {
		return nil
	}
	r := models.PostReaction{PostID: post.ID, UserID: user.ID, Type: reactionType}
	return f.db.Where(r).FirstOrCreate(&r).Error
}
