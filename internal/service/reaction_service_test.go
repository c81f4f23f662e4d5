package service

import (
	"context"
	"strings"
	"testing"

	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionService(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewReactionService(repository.NewReactionRepository(db))
	ctx := context.Background()
	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, user.ID)

	t.Run("Invalid Type", func(t *testing.T) {
		_, err := svc.AddReaction(ctx, user.ID, post.ID, "angry")
		assert.True(t, models.IsCode(err, models.CodeValidation))
	})

	t.Run("Remove Unknown Type Is A No-op", func(t *testing.T) {
		_, err := svc.AddReaction(ctx, user.ID, post.ID, models.ReactionCry)
		require.NoError(t, err)
		require.NoError(t, svc.RemoveReaction(ctx, user.ID, post.ID, "wow"))

		var n int64
		require.NoError(t, db.Model(&models.PostReaction{}).Where("post_id = ? AND type = ?", post.ID, models.ReactionCry).Count(&n).Error)
		assert.Equal(t, int64(1), n)
		require.NoError(t, svc.RemoveReaction(ctx, user.ID, post.ID, models.ReactionCry))
	})

	t.Run("Add Twice Keeps One Row", func(t *testing.T) {
		first, err := svc.AddReaction(ctx, user.ID, post.ID, models.ReactionLike)
		require.NoError(t, err)
		second, err := svc.AddReaction(ctx, user.ID, post.ID, models.ReactionLike)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.False(t, second.CreatedAt.Before(first.CreatedAt))

		var n int64
		require.NoError(t, db.Model(&models.PostReaction{}).Where("post_id = ?", post.ID).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("Remove Twice Never Errors", func(t *testing.T) {
		require.NoError(t, svc.RemoveReaction(ctx, user.ID, post.ID, models.ReactionLike))
		require.NoError(t, svc.RemoveReaction(ctx, user.ID, post.ID, models.ReactionLike))
	})

	t.Run("Missing Post", func(t *testing.T) {
		_, err := svc.AddReaction(ctx, user.ID, post.ID+1000, models.ReactionLove)
		assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	})
}

func TestCommentService_CreateComment(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewCommentService(repository.NewCommentRepository(db))
	ctx := context.Background()
	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, user.ID)

	tests := []struct {
		name     string
		postID   uint
		content  string
		wantCode string
	}{
		{"Empty", post.ID, "  ", models.CodeValidation},
		{"Too Long", post.ID, strings.Repeat("c", MaxCommentLen+1), models.CodeValidation},
		{"Missing Post", post.ID + 99, "hello", models.CodeNotFound},
		{"Valid", post.ID, "  nice  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.CreateComment(ctx, CreateCommentInput{UserID: user.ID, PostID: tt.postID, Content: tt.content})
			if tt.wantCode != "" {
				assert.True(t, models.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "nice", c.Content)
			assert.NotZero(t, c.ID)
		})
	}

	t.Run("Admin Delete", func(t *testing.T) {
		c, err := svc.CreateComment(ctx, CreateCommentInput{UserID: user.ID, PostID: post.ID, Content: "bye"})
		require.NoError(t, err)
		require.NoError(t, svc.DeleteComment(ctx, c.ID))
		assert.True(t, models.IsCode(svc.DeleteComment(ctx, c.ID), models.CodeNotFound))
	})
}
