// Package media persists uploaded photos on disk.  Rows reference files by a
// relative URL path ("/uploads/<name>") which the server also serves
// statically.  Files are content-addressed: the name is a truncated SHA-256
// of the file body plus the original extension, so re-uploading the same
// photo reuses one file and attacker-controlled filenames never reach the
// filesystem.
package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// URLPrefix is the public path prefix under which stored files are served.
const URLPrefix = "/uploads"

// Store writes and removes photo files under a single directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are stored in, for static serving.
func (s *Store) Dir() string { return s.dir }

// Save persists a multipart upload and returns its public path.  The stored
// name is derived from the content hash; only the extension survives from
// the client-provided filename, lowercased and sanitized.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	h := sha256.New()
	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	name := hex.EncodeToString(h.Sum(nil))[:32] + safeExt(fh.Filename)
	dst := filepath.Join(s.dir, name)
	if _, err := os.Stat(dst); err == nil {
		// Identical content already stored; the temp copy is discarded.
		return path.Join(URLPrefix, name), nil
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return path.Join(URLPrefix, name), nil
}

// Remove deletes a previously stored file by its public path.  Removal is
// best-effort: unknown prefixes and already-missing files are ignored.
// Content addressing means rows that uploaded identical bytes share one
// file; removing it for one row leaves the others pointing at a missing
// file until re-upload.
func (s *Store) Remove(public string) {
	if !strings.HasPrefix(public, URLPrefix+"/") {
		return
	}
	name := filepath.Base(public)
	_ = os.Remove(filepath.Join(s.dir, name))
}

// RemoveAll removes every non-nil path in the list best-effort.
func (s *Store) RemoveAll(publics []*string) {
	for _, p := range publics {
		if p != nil && *p != "" {
			s.Remove(*p)
		}
	}
}

// safeExt extracts a usable lowercase extension from an original filename.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
