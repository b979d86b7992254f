// Package media stores and deletes the image assets owned by series.
// Files live under two fixed public subdirectories of the media root,
// one per kind, and only paths inside those subdirectories are ever
// eligible for deletion.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"

	"series-catalog/internal/domain/catalog"
)

// Kind selects which asset of a serie a file belongs to.
type Kind string

const (
	KindPoster Kind = "poster"
	KindBanner Kind = "banner"
)

func (k Kind) dir() string {
	if k == KindBanner {
		return "banners"
	}
	return "posters"
}

// DefaultPath is the placeholder served when no stored image exists.
func (k Kind) DefaultPath() string {
	if k == KindBanner {
		return "/img/default-banner.jpg"
	}
	return "/img/default-poster.png"
}

var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
}

var probeExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Store writes image files under root and hands out the public paths
// that the database is allowed to reference.
type Store struct {
	root string
	now  func() time.Time
}

func NewStore(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// Store writes data as a new file for the given kind and returns its
// public path ("/posters/..." or "/banners/..."). The filename carries a
// millisecond timestamp so re-uploading the same title never collides
// with the file being replaced.
func (s *Store) Store(data []byte, kind Kind, nameHint, originalFilename string) (string, error) {
	slug := catalog.Slugify(nameHint)
	if slug == "" {
		slug = "serie"
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalFilename), "."))
	if !allowedExtensions[ext] {
		ext = "jpg"
	}

	filename := fmt.Sprintf("%s-%s-%d.%s", slug, kind, s.now().UnixMilli(), ext)
	dir := filepath.Join(s.root, kind.dir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return "/" + kind.dir() + "/" + filename, nil
}

// Delete removes the file behind a public path. Deletion is best-effort:
// a missing file counts as success and any other failure is logged and
// swallowed, so losing an old image can never fail the surrounding
// update. Paths outside the known media directories are refused.
func (s *Store) Delete(publicPath string) {
	rel, ok := s.relPath(publicPath)
	if !ok {
		log.WithField("path", publicPath).Warn("refusing to delete path outside media directories")
		return
	}
	if err := os.Remove(filepath.Join(s.root, rel)); err != nil && !os.IsNotExist(err) {
		log.WithField("path", publicPath).WithError(err).Warn("could not delete media file")
	}
}

// Owned reports whether a public path points inside one of the media
// directories, i.e. was produced by this store.
func (s *Store) Owned(publicPath string) bool {
	_, ok := s.relPath(publicPath)
	return ok
}

// Find probes the kind's directory for an image named after the title's
// slug, returning its public path or the kind's default placeholder.
func (s *Store) Find(title string, kind Kind) string {
	slug := catalog.Slugify(title)
	for _, ext := range probeExtensions {
		filename := slug + ext
		if _, err := os.Stat(filepath.Join(s.root, kind.dir(), filename)); err == nil {
			return "/" + kind.dir() + "/" + filename
		}
	}
	return kind.DefaultPath()
}

func (s *Store) relPath(publicPath string) (string, bool) {
	for _, kind := range []Kind{KindPoster, KindBanner} {
		prefix := "/" + kind.dir() + "/"
		if rest, found := strings.CutPrefix(publicPath, prefix); found {
			// No separators past the prefix: a stored path is always
			// exactly one filename deep.
			if rest == "" || rest == "." || rest == ".." || rest != filepath.Base(rest) {
				return "", false
			}
			return filepath.Join(kind.dir(), rest), true
		}
	}
	return "", false
}
