package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	postsGenerationKey = "posts:list:gen"
	postsPageKeyFormat = "posts:list:v%d:page:%d"
	PublicFeedbackKey  = "feedback:public"
)

const (
	PostsPageTTL      = 30 * time.Second
	PublicFeedbackTTL = 5 * time.Minute
)

// PostsPageKey returns the key for a feed page under the current list generation.
// Bumping the generation orphans every cached page at once; orphans expire on their TTL.
func PostsPageKey(ctx context.Context, page int) string {
	var gen int64
	if c := GetClient(); c != nil {
		v, err := c.Get(ctx, postsGenerationKey).Int64()
		if err == nil || errors.Is(err, redis.Nil) {
			gen = v
		}
	}
	return fmt.Sprintf(postsPageKeyFormat, gen, page)
}

// InvalidatePostsList drops all cached feed pages.
func InvalidatePostsList(ctx context.Context) {
	if c := GetClient(); c != nil {
		c.Incr(ctx, postsGenerationKey)
	}
}

// InvalidatePublicFeedback drops the cached public feedback board.
func InvalidatePublicFeedback(ctx context.Context) {
	Invalidate(ctx, PublicFeedbackKey)
}
