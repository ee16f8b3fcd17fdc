package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"devai-server/internal/domain"
	"devai-server/internal/repository"
	"devai-server/internal/storage"
)

var (
	// ErrMissingPostFields indicates a publish request without prompt or photo.
	ErrMissingPostFields = errors.New("Prompt and photo are required")
	// ErrInvalidPhoto indicates a photo payload that is not valid base64.
	ErrInvalidPhoto = errors.New("Photo must be a base64 image payload")
	// ErrUpload wraps media-host failures. No post record exists when it fires.
	ErrUpload = errors.New("upload failed")
	// ErrPersist wraps store failures after a successful upload. The uploaded
	// media may be orphaned on the host; there is no compensation.
	ErrPersist = errors.New("persist failed")
)

// PostService runs the publish workflow and serves the feed.
type PostService interface {
	Create(ctx context.Context, prompt, photo, userName string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
}

type postService struct {
	posts    repository.PostRepository
	uploader storage.Uploader
	opts     storage.UploadOptions
}

func NewPostService(posts repository.PostRepository, uploader storage.Uploader, opts storage.UploadOptions) PostService {
	return &postService{
		posts:    posts,
		uploader: uploader,
		opts:     opts,
	}
}

// Create uploads the photo payload to the media host, then persists the
// post referencing the durable URL. Upload happens first so a failed
// upload never leaves an orphan post record.
func (s *postService) Create(ctx context.Context, prompt, photo, userName string) (*domain.Post, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || strings.TrimSpace(photo) == "" {
		return nil, ErrMissingPostFields
	}

	data, err := decodePhoto(photo)
	if err != nil {
		return nil, ErrInvalidPhoto
	}

	url, err := s.uploader.UploadImage(ctx, data, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	post := &domain.Post{
		UserName: userName,
		Prompt:   prompt,
		Photo:    url,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	return post, nil
}

func (s *postService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

// decodePhoto accepts either a data URI ("data:image/png;base64,...") or a
// bare base64 string and returns the raw image bytes.
func decodePhoto(photo string) ([]byte, error) {
	payload := strings.TrimSpace(photo)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data uri")
		}
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty photo payload")
	}
	return data, nil
}
