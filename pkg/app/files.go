package app

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/remote"
)

// FilePath is where an attachment named name of groupID is stored.
func FilePath(groupID, name string) string {
	return path.Join("groups", groupID, uuid.NewString()+"-"+FileName(name))
}

// FileName strips directories and leading dots from an upload name.
func FileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "/" {
		return "file"
	}
	return base
}

// UploadFile stores r as an attachment of groupID and records it.
func (s *Service) UploadFile(ctx context.Context, groupID, name string, r io.Reader) (remote.File, error) {
	userID, err := s.onlineUser()
	if err != nil {
		return remote.File{}, err
	}
	p := FilePath(groupID, name)
	cr := &countingReader{r: r}
	if err := s.Blobs.Upload(ctx, p, cr); err != nil {
		return remote.File{}, err
	}
	f, err := s.Groups.AddFile(ctx, remote.File{
		GroupID:    groupID,
		UploaderID: userID,
		Name:       FileName(name),
		Path:       p,
		URL:        s.Blobs.PublicURL(p),
		Size:       cr.n,
	})
	if err != nil {
		if rmErr := s.Blobs.Remove(ctx, p); rmErr != nil {
			s.Logger.Warn("Failed to remove orphaned upload", zap.String("path", p), zap.Error(rmErr))
		}
		return remote.File{}, err
	}
	return f, nil
}

// DeleteFile removes an attachment record and its blob.
func (s *Service) DeleteFile(ctx context.Context, id string) (remote.File, error) {
	userID, err := s.onlineUser()
	if err != nil {
		return remote.File{}, err
	}
	f, err := s.Groups.DeleteFile(ctx, id, userID)
	if err != nil {
		return remote.File{}, err
	}
	if err := s.Blobs.Remove(ctx, f.Path); err != nil {
		return f, fmt.Errorf("app: remove blob: %w", err)
	}
	return f, nil
}

// DeleteGroup deletes a group the user owns along with its attachments.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) error {
	userID, err := s.onlineUser()
	if err != nil {
		return err
	}
	files, err := s.Groups.DeleteGroup(ctx, groupID, userID)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	if err := s.Blobs.Remove(ctx, paths...); err != nil {
		return fmt.Errorf("app: remove group files: %w", err)
	}
	return nil
}

// onlineUser returns the signed in user when remote services are available.
func (s *Service) onlineUser() (string, error) {
	if err := s.RequireOnline(); err != nil {
		return "", err
	}
	if s.Groups == nil {
		return "", ErrOffline
	}
	uid := s.UserID()
	if uid == "" {
		return "", ErrSignedOut
	}
	return uid, nil
}

// GroupUser is onlineUser for callers using the Groups repository directly.
func (s *Service) GroupUser() (string, error) {
	return s.onlineUser()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
