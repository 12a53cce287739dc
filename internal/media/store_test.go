package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadHeader builds a *multipart.FileHeader the way an Echo handler would
// receive it.
func uploadHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, fh, err := req.FormFile(field)
	require.NoError(t, err)
	return fh
}

func TestSaveContentAddressed(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	fh := uploadHeader(t, "foto", "my bonsai (1).JPG", []byte("photo-bytes"))
	public, err := store.Save(fh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(public, URLPrefix+"/"))
	assert.True(t, strings.HasSuffix(public, ".jpg"), "extension should be lowercased: %s", public)
	// 32 hex chars of hash plus extension, nothing of the original name.
	base := filepath.Base(public)
	assert.Len(t, strings.TrimSuffix(base, ".jpg"), 32)
	assert.NotContains(t, base, "bonsai")

	_, err = os.Stat(filepath.Join(store.Dir(), base))
	assert.NoError(t, err)
}

func TestSaveDeduplicatesIdenticalContent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save(uploadHeader(t, "foto", "one.png", []byte("same")))
	require.NoError(t, err)
	b, err := store.Save(uploadHeader(t, "foto", "two.png", []byte("same")))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	public, err := store.Save(uploadHeader(t, "foto", "p.gif", []byte("x")))
	require.NoError(t, err)

	store.Remove(public)
	_, statErr := os.Stat(filepath.Join(store.Dir(), filepath.Base(public)))
	assert.True(t, os.IsNotExist(statErr))

	// Paths outside the public prefix are ignored.
	store.Remove("/etc/passwd")
	store.Remove("passwd")
}

func TestRemoveAllSkipsNil(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	public, err := store.Save(uploadHeader(t, "foto", "p.gif", []byte("y")))
	require.NoError(t, err)

	empty := ""
	store.RemoveAll([]*string{nil, &empty, &public})
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".jpg", safeExt("photo.JPG"))
	assert.Equal(t, ".webp", safeExt("a.b.webp"))
	assert.Equal(t, "", safeExt("no-extension"))
	assert.Equal(t, "", safeExt("weird.j%g"))
	assert.Equal(t, "", safeExt("dot-at-end."))
}
