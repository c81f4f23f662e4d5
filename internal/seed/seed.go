package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"communityhub/internal/cache"
	"communityhub/internal/middleware"
	"communityhub/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	DryRun      bool
	// SkipBcrypt stores the plain default password. Only for local stress runs.
	SkipBcrypt bool
	MaxDays    int
}

// Result counts what a seeding run produced.
type Result struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
}

// ReactionDistribution weights the reaction types handed out while seeding.
type ReactionDistribution struct {
	Like, Love, Laugh, Cry int
}

var defaultDistribution = ReactionDistribution{Like: 50, Love: 30, Laugh: 10, Cry: 10}

// computeCounts splits total reactions across types by weight. Rounding
// leftovers go to the heaviest types first so the parts always sum to total.
func computeCounts(total int, d ReactionDistribution) map[string]int {
	weights := []struct {
		t string
		w int
	}{
		{models.ReactionLike, d.Like},
		{models.ReactionLove, d.Love},
		{models.ReactionLaugh, d.Laugh},
		{models.ReactionCry, d.Cry},
	}
	sum := 0
	for _, w := range weights {
		sum += w.w
	}
	out := make(map[string]int, len(weights))
	if total <= 0 || sum <= 0 {
		return out
	}
	assigned := 0
	for _, w := range weights {
		n := total * w.w / sum
		out[w.t] = n
		assigned += n
	}
	for i := 0; assigned < total; i = (i + 1) % len(weights) {
		if weights[i].w == 0 {
			continue
		}
		out[weights[i].t]++
		assigned++
	}
	return out
}

// Seed populates the database with users, posts, comments and reactions.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Result, error) {
	log := middleware.Component("seed")
	log.Info("starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
		slog.Bool("dry_run", opts.DryRun))

	var res Result
	if opts.NumUsers <= 0 {
		return res, fmt.Errorf("seed needs at least one user")
	}

	if db != nil {
		db = db.WithContext(ctx)
	}
	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return res, fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return res, fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for range opts.NumPosts {
		posts = append(posts, f.BuildPost(users[rand.IntN(len(users))]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, p := range posts {
		for range rand.IntN(4) {
			if _, err := f.CreateComment(p, users[rand.IntN(len(users))]); err != nil {
				return res, fmt.Errorf("failed to create comments: %w", err)
			}
			res.Comments++
		}
		counts := computeCounts(rand.IntN(min(len(users), 8)+1), defaultDistribution)
		reactors := rand.Perm(len(users))
		i := 0
		for t, n := range counts {
			for range n {
				if err := f.CreateReaction(p, users[reactors[i%len(reactors)]], t); err != nil {
					return res, fmt.Errorf("failed to create reactions: %w", err)
				}
				i++
				res.Reactions++
			}
		}
	}

	if !opts.DryRun {
		cache.InvalidatePostsList(ctx)
	}
	log.Info("database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
		slog.Int("reactions", res.Reactions))
	return res, nil
}

// clearData removes community content and non-admin users. Admin accounts survive.
func clearData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.PostReaction{}, &models.Comment{}, &models.PostFile{}, &models.Post{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		members := tx.Model(&models.User{}).Select("id").Where("is_admin = ?", false)
		for _, m := range []any{&models.ServerGrant{}, &models.Feedback{}} {
			if err := tx.Where("user_id IN (?)", members).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("is_admin = ?", false).Delete(&models.User{}).Error
	})
}
