// Package assets loads the images embedded in every email: the logo, the
// hero cover and the product photo.
package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/pkg/mailer"
	"github.com/sensiq/coldmail/pkg/storage"
)

var (
	ErrNotFound    = errors.New("assets: not found")
	ErrInvalidName = errors.New("assets: invalid file name")
	ErrMissing     = errors.New("assets: required images missing")
)

// Config holds the assets location.
type Config struct {
	Dir string `env:"ASSETS_DIR" envDefault:"assets"`
}

// Image is a loaded asset.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// DataURL returns the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.ContentType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// inline maps content ids to the files they are read from.
var inline = []struct {
	cid  string
	file string
}{
	{content.CIDLogo, "logo.png"},
	{content.CIDCover, "Cover.png"},
	{content.CIDProduct, "SN10.jpg"},
}

// Store reads assets from a filesystem and keeps them in memory once read.
type Store struct {
	fsys fs.FS

	mu     sync.RWMutex
	images map[string]Image
}

// New creates a Store over fsys.
func New(fsys fs.FS) *Store {
	return &Store{fsys: fsys, images: make(map[string]Image)}
}

// NewDir creates a Store over a directory on disk.
func NewDir(dir string) *Store {
	return New(os.DirFS(dir))
}

// Open returns the named asset. Names must be plain file names inside the
// assets root.
func (s *Store) Open(name string) (Image, error) {
	if name == "" || name != path.Clean(name) || strings.Contains(name, "..") ||
		strings.HasPrefix(name, "/") || !fs.ValidPath(name) {
		return Image{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.RLock()
	img, ok := s.images[name]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Image{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Image{}, fmt.Errorf("assets: read %s: %w", name, err)
	}

	img = Image{Name: name, ContentType: storage.ContentType(name), Data: data}
	s.mu.Lock()
	s.images[name] = img
	s.mu.Unlock()
	return img, nil
}

// Preflight checks that every inline image can be read.
func (s *Store) Preflight() error {
	var missing []string
	for _, in := range inline {
		if _, err := s.Open(in.file); err != nil {
			missing = append(missing, in.file)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Inline returns the images as MIME parts referenced by cid.
func (s *Store) Inline() ([]mailer.Attachment, error) {
	out := make([]mailer.Attachment, 0, len(inline))
	for _, in := range inline {
		img, err := s.Open(in.file)
		if err != nil {
			return nil, err
		}
		out = append(out, mailer.Attachment{
			Filename:    img.Name,
			ContentType: img.ContentType,
			ContentID:   in.cid,
			Content:     img.Data,
		})
	}
	return out, nil
}

// InlineAvailable is Inline without the missing images.
func (s *Store) InlineAvailable() []mailer.Attachment {
	out := make([]mailer.Attachment, 0, len(inline))
	for _, in := range inline {
		img, err := s.Open(in.file)
		if err != nil {
			continue
		}
		out = append(out, mailer.Attachment{
			Filename:    img.Name,
			ContentType: img.ContentType,
			ContentID:   in.cid,
			Content:     img.Data,
		})
	}
	return out
}

// EmbedDataURLs replaces cid: references in html with data URLs so the
// document renders in a browser. Missing images are replaced by an empty
// source.
func (s *Store) EmbedDataURLs(html string) string {
	pairs := make([]string, 0, len(inline)*2)
	for _, in := range inline {
		src := ""
		if img, err := s.Open(in.file); err == nil {
			src = img.DataURL()
		}
		pairs = append(pairs, "cid:"+in.cid, src)
	}
	return strings.NewReplacer(pairs...).Replace(html)
}
