package ports

import (
	"context"
	"io"
)

// FileStore persists uploaded course files and returns their public URL.
type FileStore interface {
	Save(ctx context.Context, originalName string, body io.Reader) (string, error)
	// Remove deletes the file behind publicURL. Unknown files are not an error.
	Remove(ctx context.Context, publicURL string) error
}
