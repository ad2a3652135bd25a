package storage

import (
	"context"
	"io"
)

// AvatarStore persists user avatar images and serves them by public URL.
type AvatarStore interface {
	// Upload stores the image and returns its public URL and an opaque key
	// usable with Delete.
	Upload(ctx context.Context, contentType string, body io.Reader) (url, key string, err error)
	Delete(ctx context.Context, key string) error
}
