// Package genimage proxies text prompts to an external image-inference
// provider and normalizes the provider's response into a base64 data URI.
package genimage

import (
	"context"
	"errors"

	"devai-server/internal/domain"
)

// ErrEmptyPrompt is returned before any outbound call when the prompt is
// missing or blank.
var ErrEmptyPrompt = errors.New("valid prompt is required")

// UpstreamError reports a provider failure: non-2xx status, unusable
// payload, or a network/timeout error. Calls are single-attempt; retry
// policy belongs to the caller.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Client generates one image per call. Implementations perform no retries
// and persist nothing; the result lives only in the response.
type Client interface {
	Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error)
}
