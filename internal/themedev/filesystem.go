// Package themedev serves a theme under development: local assets are served
// from disk and everything else is proxied to the store.
package themedev

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ThemeDirectories are the top-level folders of a theme.
var ThemeDirectories = []string{"assets", "blocks", "config", "layout", "locales", "sections", "snippets", "templates"}

// ErrInvalidKey is returned for keys outside the theme.
var ErrInvalidKey = errors.New("invalid theme file key")

// File is a cached theme file. Text files keep their content in Value,
// binary files in Attachment.
type File struct {
	Key        string
	Value      string
	Attachment []byte
	Checksum   string
	UpdatedAt  time.Time
	Size       int64
}

// IsText reports whether the file content is held as text.
func (f File) IsText() bool { return f.Attachment == nil }

// Bytes returns the raw content.
func (f File) Bytes() []byte {
	if f.IsText() {
		return []byte(f.Value)
	}
	return f.Attachment
}

// FileSystem is the in-memory view of a local theme, keyed by
// slash-separated theme-relative path such as "assets/app.css".
type FileSystem struct {
	root string

	mu    sync.RWMutex
	files map[string]File
}

// NewFileSystem returns an empty file system rooted at root.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root, files: make(map[string]File)}
}

// Root is the theme directory.
func (t *FileSystem) Root() string { return t.root }

// Load reads every file in the theme directories into the cache.
func (t *FileSystem) Load() error {
	for _, dir := range ThemeDirectories {
		base := filepath.Join(t.root, dir)
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			key, err := t.keyFor(p)
			if err != nil {
				return err
			}
			_, err = t.Read(key)
			return err
		})
		if err != nil {
			return fmt.Errorf("load theme %s: %w", base, err)
		}
	}
	return nil
}

// Has reports whether key is cached.
func (t *FileSystem) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.files[key]
	return ok
}

// Get returns the cached file.
func (t *FileSystem) Get(key string) (File, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.files[key]
	return f, ok
}

// Keys lists cached keys in order.
func (t *FileSystem) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.files))
	for k := range t.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Read loads key from disk and refreshes the cache.
func (t *FileSystem) Read(key string) (File, error) {
	p, err := t.pathFor(key)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", key, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", key, err)
	}

	sum := md5.Sum(data)
	f := File{
		Key:       key,
		Checksum:  hex.EncodeToString(sum[:]),
		UpdatedAt: info.ModTime(),
		Size:      info.Size(),
	}
	if isTextKey(key) {
		f.Value = string(data)
	} else {
		f.Attachment = data
	}

	t.mu.Lock()
	t.files[key] = f
	t.mu.Unlock()
	return f, nil
}

// Stat returns file info for key from disk.
func (t *FileSystem) Stat(key string) (os.FileInfo, error) {
	p, err := t.pathFor(key)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// Delete drops key from the cache.
func (t *FileSystem) Delete(key string) {
	t.mu.Lock()
	delete(t.files, key)
	t.mu.Unlock()
}

func (t *FileSystem) pathFor(key string) (string, error) {
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "../") || clean == ".." || path.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(t.root, filepath.FromSlash(clean)), nil
}

func (t *FileSystem) keyFor(p string) (string, error) {
	rel, err := filepath.Rel(t.root, p)
	if err != nil {
		return "", err
	}
	key := filepath.ToSlash(rel)
	if strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}

// MimeType returns the content type for a theme key.
func MimeType(key string) string {
	if t := mime.TypeByExtension(path.Ext(strings.TrimSuffix(key, ".liquid"))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func isTextKey(key string) bool {
	t := MimeType(key)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	switch {
	case strings.HasPrefix(t, "text/"),
		t == "application/javascript", t == "text/javascript",
		t == "application/json", t == "image/svg+xml":
		return true
	}
	return strings.HasSuffix(key, ".liquid")
}
