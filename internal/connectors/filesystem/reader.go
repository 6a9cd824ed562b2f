// Package filesystem reads user-supplied local files.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.FileReader = (*Reader)(nil)

// MaxFileBytes caps how much of a local file is read.
const MaxFileBytes = 64 << 20

// Reader loads local files as raw documents.
type Reader struct {
	maxBytes int64
}

// NewReader creates a reader with the default size limit.
func NewReader() *Reader {
	return &Reader{maxBytes: MaxFileBytes}
}

// ReadFile resolves location and reads it. Directories and files larger
// than the limit are rejected.
func (r *Reader) ReadFile(ctx context.Context, location string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := ResolvePath(location)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrInvalidInput, path, r.maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, r.maxBytes))
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		Filename:    filepath.Base(path),
		URI:         path,
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Content:     content,
	}, nil
}

// ResolvePath turns a file:// URI or a ~/ path into a local path.
// Other input is returned cleaned.
func ResolvePath(location string) (string, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	if strings.HasPrefix(strings.ToLower(loc), "file://") {
		u, err := url.Parse(loc)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote file host %q", domain.ErrInvalidInput, u.Host)
		}
		loc = u.Path
	}

	if loc == "~" || strings.HasPrefix(loc, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		loc = filepath.Join(home, strings.TrimPrefix(loc, "~"))
	}

	return filepath.Clean(loc), nil
}
