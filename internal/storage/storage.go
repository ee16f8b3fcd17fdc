package storage

import (
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket    string
	KeyPrefix string
}

// Uploader stores an image payload durably and returns its public URL.
// Implementations must not be retried by callers; a failed upload leaves
// no post record behind.
type Uploader interface {
	UploadImage(ctx context.Context, data []byte, opts UploadOptions) (string, error)
}

// objectKey builds a unique key under the configured prefix, with an
// extension derived from the payload's sniffed media type.
func objectKey(prefix string, data []byte) (key, contentType string) {
	mt := mimetype.Detect(data)
	key = uuid.NewString() + mt.Extension()
	if trimmed := strings.Trim(prefix, "/"); trimmed != "" {
		key = trimmed + "/" + key
	}
	return key, mt.String()
}
