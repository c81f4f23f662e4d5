package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func byteAttachment(name string, data []byte) Attachment {
	return Attachment{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(data)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func newPostService(t *testing.T) (*PostService, *gorm.DB, *testutil.MemoryFileStore) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := testutil.NewMemoryFileStore()
	users := repository.NewUserRepository(db)
	return NewPostService(repository.NewPostRepository(db), store, users.IsAdmin), db, store
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	svc, db, _ := newPostService(t)
	user := testutil.CreateUser(t, db)
	ctx := context.Background()

	tooMany := make([]Attachment, MaxAttachments+1)
	for i := range tooMany {
		tooMany[i] = byteAttachment("f.txt", []byte("x"))
	}

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"Empty Content", CreatePostInput{UserID: user.ID, Content: "   "}},
		{"Content Too Long", CreatePostInput{UserID: user.ID, Content: strings.Repeat("a", MaxPostContentLen+1)}},
		{"Too Many Files", CreatePostInput{UserID: user.ID, Content: "hi", Attachments: tooMany}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.in)
			assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestPostService_CreatePost_AttachmentSizeBoundary(t *testing.T) {
	svc, db, store := newPostService(t)
	user := testutil.CreateUser(t, db)
	ctx := context.Background()

	tooBig := Attachment{
		Filename: "big.bin",
		Size:     11 << 20,
		Open: func() (io.ReadCloser, error) {
			t.Fatal("oversized attachment must not be read")
			return nil, nil
		},
	}
	_, err := svc.CreatePost(ctx, CreatePostInput{UserID: user.ID, Content: "big", Attachments: []Attachment{tooBig}})
	assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
	assert.Equal(t, 0, store.Len())

	exact := byteAttachment("exact.bin", make([]byte, MaxAttachmentBytes))
	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: user.ID, Content: "exact", Attachments: []Attachment{exact}})
	require.NoError(t, err)
	require.Len(t, post.Files, 1)
	assert.Equal(t, int64(MaxAttachmentBytes), post.Files[0].Size)
	assert.Len(t, store.Bytes(post.Files[0].Filename), MaxAttachmentBytes)
}

func TestPostService_CreatePost_ReturnsHydratedPost(t *testing.T) {
	svc, db, store := newPostService(t)
	user := testutil.CreateUser(t, db)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:      user.ID,
		Content:     "  hello world  ",
		IsAnonymous: true,
		Attachments: []Attachment{byteAttachment("Notes.TXT", []byte("abc")), byteAttachment("photo", []byte("img"))},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", post.Content)
	assert.True(t, post.IsAnonymous)
	require.NotNil(t, post.User)
	assert.Equal(t, user.ID, post.User.ID)
	require.Len(t, post.Files, 2)
	assert.True(t, strings.HasSuffix(post.Files[0].Filename, ".txt"))
	assert.Equal(t, "Notes.TXT", post.Files[0].OriginalName)
	assert.Equal(t, "/uploads/"+post.Files[0].Filename, post.Files[0].URL)
	assert.NotNil(t, post.Reactions)
	assert.Empty(t, post.Reactions)
	assert.NotNil(t, post.Comments)
	assert.Equal(t, 2, store.Len())
}

func TestPostService_CreatePost_StoreFailure(t *testing.T) {
	svc, db, store := newPostService(t)
	user := testutil.CreateUser(t, db)
	store.FailSave = true

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: user.ID, Content: "x", Attachments: []Attachment{byteAttachment("a", []byte("a"))},
	})
	assert.True(t, models.IsCode(err, models.CodeStorage), "got %v", err)

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	repository.PostRepository
	createFn func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}

func TestPostService_CreatePost_RemovesFilesWhenDatabaseFails(t *testing.T) {
	store := testutil.NewMemoryFileStore()
	repo := &postRepoStub{createFn: func(context.Context, *models.Post) error { return errors.New("db down") }}
	svc := NewPostService(repo, store, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID: 1, Content: "x", Attachments: []Attachment{byteAttachment("a", []byte("a")), byteAttachment("b", []byte("b"))},
	})
	assert.True(t, models.IsCode(err, models.CodeStorage), "got %v", err)
	assert.Equal(t, 0, store.Len())
}

func TestPostService_DeletePost_Authorization(t *testing.T) {
	svc, db, store := newPostService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db)
	stranger := testutil.CreateUser(t, db)
	admin := testutil.CreateUser(t, db, func(u *models.User) { u.IsAdmin = true })

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: owner.ID, Content: "mine", Attachments: []Attachment{byteAttachment("a.txt", []byte("a"))}})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, UserID: stranger.ID, Content: "hey"}).Error)

	err = svc.DeletePost(ctx, DeletePostInput{UserID: stranger.ID, PostID: post.ID})
	assert.True(t, models.IsCode(err, models.CodeForbidden), "got %v", err)

	var posts, comments int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(1), posts)
	assert.Equal(t, int64(1), comments)
	assert.Equal(t, 1, store.Len())

	err = svc.DeletePost(ctx, DeletePostInput{UserID: stranger.ID, PostID: post.ID + 50})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: admin.ID, PostID: post.ID}))
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
	assert.Equal(t, 0, store.Len())
}

func TestPostService_DeletePost_Owner(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, owner.ID)

	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: owner.ID, PostID: post.ID}))
	listed, err := svc.ListPosts(ctx, owner.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestPostService_ListPosts_PagingAndRedaction(t *testing.T) {
	svc, db, _ := newPostService(t)
	testutil.UseMiniredis(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, db)
	viewer := testutil.CreateUser(t, db)
	for i := 0; i < 24; i++ {
		testutil.CreatePost(t, db, author.ID)
	}
	anon := testutil.CreatePost(t, db, author.ID, func(p *models.Post) { p.IsAnonymous = true; p.Content = "secret" })

	page0, err := svc.ListPosts(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, page0, PostsPageSize)
	assert.Equal(t, anon.ID, page0[0].ID)
	assert.Nil(t, page0[0].User)
	assert.Zero(t, page0[0].UserID)

	page2, err := svc.ListPosts(ctx, viewer.ID, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 5)

	// cached page, viewed by the author
	own, err := svc.ListPosts(ctx, author.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, own[0].User)
	assert.Equal(t, author.ID, own[0].UserID)

	// the cached copy must not have been redacted for the first viewer
	again, err := svc.ListPosts(ctx, viewer.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, again[0].User)
}
