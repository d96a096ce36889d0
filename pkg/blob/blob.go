// Package blob stores group attachments.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// ErrInvalidPath is returned for paths that are empty, absolute or escape
// the store.
var ErrInvalidPath = errors.New("blob: invalid path")

// Store is a flat namespace of files addressed by "/" separated paths.
type Store interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	PublicURL(path string) string
	Remove(ctx context.Context, paths ...string) error
}

// Disk keeps blobs in a directory tree through diskv.
type Disk struct {
	d       *diskv.Diskv
	base    string
	baseURL string
}

// NewDisk returns a Disk rooted at dir. baseURL prefixes public URLs; when
// empty, file:// URLs are returned.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("blob: base path unknown")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("blob: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("blob: ensure base path: %w", err)
	}
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:          abs,
			TempDir:           filepath.Join(abs, ".tmp"),
			AdvancedTransform: pathToKey,
			InverseTransform:  keyToPath,
			CacheSizeMax:      0,
			FilePerm:          0o600,
			PathPerm:          0o700,
		}),
		base:    abs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

var _ Store = (*Disk)(nil)

func (s *Disk) Upload(ctx context.Context, path string, r io.Reader) error {
	if err := Validate(path); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.d.WriteStream(path, r, true); err != nil {
		return fmt.Errorf("blob: upload %s: %w", path, err)
	}
	return nil
}

func (s *Disk) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := Validate(path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.d.ReadStream(path, false)
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", path, err)
	}
	return rc, nil
}

// PublicURL returns where path can be fetched from. Invalid paths yield "".
func (s *Disk) PublicURL(path string) string {
	if Validate(path) != nil {
		return ""
	}
	escaped := escapePath(path)
	if s.baseURL != "" {
		return s.baseURL + "/" + escaped
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(s.base) + "/" + path}
	return u.String()
}

// Remove erases paths. Missing paths are ignored.
func (s *Disk) Remove(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Validate(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if !s.d.Has(p) {
			continue
		}
		if err := s.d.Erase(p); err != nil {
			errs = append(errs, fmt.Errorf("blob: remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that path is a relative "/" separated path inside the
// store.
func Validate(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func pathToKey(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func keyToPath(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return strings.Join(pk.Path, "/") + "/" + pk.FileName
}
