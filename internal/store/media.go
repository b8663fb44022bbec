package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// MediaKind selects the media subfolder an upload is written to.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

var ErrUnknownMediaKind = errors.New("unknown media kind")

// ParseMediaKind maps the ?type= query value to a MediaKind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(strings.ToLower(strings.TrimSpace(s))); k {
	case MediaImage, MediaVideo, MediaAudio:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMediaKind, s)
}

// Subdir is the folder name under media/ for the kind.
func (k MediaKind) Subdir() string {
	switch k {
	case MediaImage:
		return "images"
	case MediaVideo:
		return "videos"
	}
	return "audio"
}

func (s *Store) mediaPath(kind MediaKind) string {
	return filepath.Join(s.dir, MediaDir, kind.Subdir())
}

// SanitizeFilename replaces every character outside [a-zA-Z0-9._-] with '_'.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}

// Upload is the result of SaveUpload.
type Upload struct {
	URL  string
	Path string
	MIME string
	Size int64
}

// SaveUpload writes r under the kind's media folder using the sanitized
// filename, overwriting any file of the same name.
func (s *Store) SaveUpload(kind MediaKind, filename string, r io.Reader) (*Upload, error) {
	name := SanitizeFilename(filename)
	dir := s.mediaPath(kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	dst := filepath.Join(dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	up := &Upload{
		URL:  path.Join(s.mediaPrefix, kind.Subdir(), name),
		Path: dst,
		Size: n,
	}
	if mt, err := mimetype.DetectFile(dst); err == nil {
		up.MIME = mt.String()
	}
	logrus.WithFields(logrus.Fields{
		"kind": kind,
		"name": name,
		"size": n,
		"mime": up.MIME,
	}).Info("media uploaded")
	return up, nil
}
