package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"communityhub/internal/cache"
	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/observability"
	"communityhub/internal/repository"
	"communityhub/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	PostsPageSize      = 20
	MaxPostContentLen  = 50000
	MaxAttachments     = 10
	MaxAttachmentBytes = 10 << 20
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// Attachment is an uploaded file waiting to be stored with a post.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type PostService struct {
	postRepo repository.PostRepository
	files    storage.FileStore
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID      uint
	Content     string
	IsAnonymous bool
	Attachments []Attachment
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	files storage.FileStore,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo: postRepo,
		files:    files,
		isAdmin:  isAdmin,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int("post.attachments", len(in.Attachments)))
	defer func() { observability.EndSpan(span, err) }()

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > MaxPostContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if len(in.Attachments) > MaxAttachments {
		return nil, models.NewValidationError(fmt.Sprintf("Too many files (max %d)", MaxAttachments))
	}
	for _, a := range in.Attachments {
		if a.Size > MaxAttachmentBytes {
			return nil, models.NewValidationError(fmt.Sprintf("File %q too large (max 10MB)", a.Filename))
		}
	}

	files, err := s.storeAttachments(ctx, in.Attachments)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:      in.UserID,
		Content:     content,
		IsAnonymous: in.IsAnonymous,
		Files:       files,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.removeFiles(ctx, files)
		return nil, storeErr("Failed to create post", err)
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, storeErr("Failed to create post", err)
	}
	normalizePost(created)
	return created, nil
}

// storeAttachments writes every attachment or none of them.
func (s *PostService) storeAttachments(ctx context.Context, attachments []Attachment) ([]models.PostFile, error) {
	files := make([]models.PostFile, 0, len(attachments))
	for _, a := range attachments {
		name := uuid.NewString() + safeExt(a.Filename)
		url, err := s.saveOne(ctx, name, a)
		if err != nil {
			s.removeFiles(ctx, files)
			return nil, models.NewStorageError("Failed to store attachment", err)
		}
		observability.UploadBytes.WithLabelValues("attachment").Observe(float64(a.Size))

		mimeType := a.ContentType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, models.PostFile{
			Filename:     name,
			OriginalName: filepath.Base(a.Filename),
			MimeType:     mimeType,
			Size:         a.Size,
			URL:          url,
		})
	}
	return files, nil
}

func (s *PostService) saveOne(ctx context.Context, name string, a Attachment) (string, error) {
	if a.Open == nil {
		return "", fmt.Errorf("attachment %q has no content", a.Filename)
	}
	rc, err := a.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.files.Save(ctx, name, io.LimitReader(rc, MaxAttachmentBytes))
}

func (s *PostService) removeFiles(ctx context.Context, files []models.PostFile) {
	for _, f := range files {
		if err := s.files.Remove(ctx, f.Filename); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove stored attachment",
				slog.String("file", f.Filename), slog.String("error", err.Error()))
		}
	}
}

// ListPosts returns a page of the feed as seen by viewerID.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, page int) (_ []*models.Post, err error) {
	if page < 1 {
		page = 1
	}
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ListPosts", attribute.Int("page", page))
	defer func() { observability.EndSpan(span, err) }()

	var posts []*models.Post
	err = cache.Aside(ctx, cache.PostsPageKey(ctx, page), &posts, cache.PostsPageTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.postRepo.List(ctx, PostsPageSize, (page-1)*PostsPageSize)
		return fetchErr
	})
	if err != nil {
		return nil, storeErr("Failed to fetch posts", err)
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	for _, p := range posts {
		normalizePost(p)
		p.RedactFor(viewerID)
	}
	return posts, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("post.id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	ownerID, err := s.postRepo.GetOwnerID(ctx, in.PostID)
	if err != nil {
		return storeErr("Failed to delete post", err)
	}

	if ownerID != in.UserID {
		if s.isAdmin == nil {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return storeErr("Failed to delete post", err)
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	files, err := s.postRepo.Delete(ctx, in.PostID)
	if err != nil {
		return storeErr("Failed to delete post", err)
	}
	s.removeFiles(ctx, files)
	return nil
}

// normalizePost swaps nil association slices for empty ones so they encode as [].
func normalizePost(p *models.Post) {
	if p.Files == nil {
		p.Files = []models.PostFile{}
	}
	if p.Reactions == nil {
		p.Reactions = []models.PostReaction{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if extPattern.MatchString(ext) {
		return ext
	}
	return ""
}
