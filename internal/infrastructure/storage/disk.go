// Package storage keeps uploaded course media on local disk and serves it
// under a public URL prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skillsharehub/marketplace/internal/core/domain"
	"github.com/skillsharehub/marketplace/internal/core/ports"
	"github.com/skillsharehub/marketplace/internal/pkg/metrics"
)

// PublicPrefix is the URL path the router serves Dir under.
const PublicPrefix = "/uploads"

// Disk implements ports.FileStore on a local directory.
type Disk struct {
	dir      string
	maxBytes int64
	log      zerolog.Logger
}

var _ ports.FileStore = (*Disk)(nil)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = fmt.Errorf("%w: upload exceeds size limit", domain.ErrValidation)

// NewDisk creates dir when missing. A maxBytes of zero disables the limit.
func NewDisk(dir string, maxBytes int64, log zerolog.Logger) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Disk{dir: dir, maxBytes: maxBytes, log: log}, nil
}

// Dir returns the directory files are written to.
func (d *Disk) Dir() string { return d.dir }

// Save writes body under a random name keeping the original extension and
// returns its public URL.
func (d *Disk) Save(ctx context.Context, originalName string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(d.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}

	src := body
	if d.maxBytes > 0 {
		src = io.LimitReader(body, d.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && d.maxBytes > 0 && n > d.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write %s: %w", originalName, err)
	}

	metrics.UploadedBytesTotal.Add(float64(n))
	d.log.Debug().Str("file", name).Int64("bytes", n).Msg("upload stored")
	return PublicPrefix + "/" + name, nil
}

// Remove deletes the file behind publicURL. URLs outside PublicPrefix and
// files already gone are ignored.
func (d *Disk) Remove(_ context.Context, publicURL string) error {
	name, ok := strings.CutPrefix(publicURL, PublicPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(d.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}
