// Package source opens document byte streams by identifier.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedScheme is returned for identifiers a source cannot open.
var ErrUnsupportedScheme = errors.New("unsupported identifier scheme")

// Source opens byte streams for opaque, URI-shaped identifiers.
type Source interface {
	OpenReader(ctx context.Context, id string) (io.ReadCloser, error)
	OpenWriter(ctx context.Context, id string) (io.WriteCloser, error)
}

// FileSource reads and writes local files. Identifiers are plain paths or
// file:// URIs; relative paths resolve against Root when it is set.
type FileSource struct {
	Root string
}

// Path resolves id to a filesystem path.
func (s FileSource) Path(id string) (string, error) {
	path := id
	if strings.Contains(id, "://") {
		u, err := url.Parse(id)
		if err != nil {
			return "", fmt.Errorf("parse %q: %w", id, err)
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("%s: %w", u.Scheme, ErrUnsupportedScheme)
		}
		path = u.Path
	}

	if path == "" {
		return "", fmt.Errorf("empty identifier: %w", os.ErrNotExist)
	}
	if !filepath.IsAbs(path) && s.Root != "" {
		path = filepath.Join(s.Root, path)
	}
	return filepath.Clean(path), nil
}

// OpenReader opens id for reading.
func (s FileSource) OpenReader(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// OpenWriter creates or truncates id for writing, creating parent
// directories as needed.
func (s FileSource) OpenWriter(ctx context.Context, id string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	return os.Create(path)
}
