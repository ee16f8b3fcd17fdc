package repository

import (
	"context"

	"devai-server/internal/domain"
)

// PostRepository defines persistence operations for Post entities.
// Posts are immutable: there is no update or delete.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	List(ctx context.Context) ([]domain.Post, error)
}
