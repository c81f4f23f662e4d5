package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	"communityhub/internal/models"
	"communityhub/internal/observability"
	"communityhub/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MaxAvatarBytes = 5 << 20
	AvatarSize     = 256
	WebPQuality    = 80
)

// AvatarService turns uploaded pictures into square WebP profile images.
type AvatarService struct {
	files storage.FileStore
}

func NewAvatarService(files storage.FileStore) *AvatarService {
	return &AvatarService{files: files}
}

// Store validates content, re-encodes it and saves it, returning the public URL.
func (s *AvatarService) Store(ctx context.Context, userID uint, contentType string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(content) > MaxAvatarBytes {
		return "", models.NewValidationError("File too large (max 5MB)")
	}
	if provided := normalizeContentType(contentType); provided != "" && !isAllowedImageMIME(provided) {
		return "", models.NewValidationError("Only image files are allowed")
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return "", models.NewValidationError("Only image files are allowed")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil || !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Invalid image file")
	}

	encoded, err := encodeWebP(resizeToFit(cropSquare(decoded), AvatarSize, AvatarSize), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	name := fmt.Sprintf("avatar-%d-%s.webp", userID, uuid.NewString())
	url, err := s.files.Save(ctx, name, bytes.NewReader(encoded))
	if err != nil {
		return "", models.NewStorageError("Failed to update profile picture", err)
	}
	observability.UploadBytes.WithLabelValues("avatar").Observe(float64(len(content)))
	return url, nil
}

// Remove deletes a previously stored avatar given its URL.
func (s *AvatarService) Remove(ctx context.Context, url string) error {
	i := strings.LastIndexByte(url, '/')
	name := url[i+1:]
	if !strings.HasPrefix(name, "avatar-") {
		return nil
	}
	return s.files.Remove(ctx, name)
}

// cropSquare takes the centered square of src.
func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 {
		return src
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
