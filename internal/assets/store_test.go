package assets

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

func multipartFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["image"][0]
}

func TestDiskStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewDiskStore(root, "/public/uploads/")

	image, err := store.Save(multipartFileHeader(t, "gloves.png", "png-bytes"), "products")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(image.AssetID, "products/"))
	assert.True(t, strings.HasSuffix(image.AssetID, ".png"))
	assert.Equal(t, "/public/uploads/"+image.AssetID, image.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(image.AssetID)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestDiskStoreSaveRejectsExtension(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/public/uploads")

	_, err := store.Save(multipartFileHeader(t, "malware.exe", "nope"), "products")
	assert.Error(t, err)

	_, err = store.Save(multipartFileHeader(t, "noext", "nope"), "products")
	assert.Error(t, err)
}

func TestDiskStoreSaveRejectsOversized(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/public/uploads")

	header := multipartFileHeader(t, "big.jpg", "x")
	header.Size = maxAssetSize + 1

	_, err := store.Save(header, "products")
	assert.Error(t, err)
}

func TestDiskStoreSaveUniqueNames(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/public/uploads")

	first, err := store.Save(multipartFileHeader(t, "a.jpg", "one"), "brands")
	require.NoError(t, err)
	second, err := store.Save(multipartFileHeader(t, "a.jpg", "two"), "brands")
	require.NoError(t, err)

	assert.NotEqual(t, first.AssetID, second.AssetID)
}

func TestDiskStoreDelete(t *testing.T) {
	root := t.TempDir()
	store := NewDiskStore(root, "/public/uploads")

	image, err := store.Save(multipartFileHeader(t, "a.jpg", "one"), "brands")
	require.NoError(t, err)

	require.NoError(t, store.Delete(image.AssetID))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(image.AssetID)))
	assert.True(t, os.IsNotExist(err))

	// Deleting an id that is already gone is not an error.
	assert.NoError(t, store.Delete(image.AssetID))
	assert.NoError(t, store.Delete(""))
}

func TestDiskStoreDeleteContainsTraversal(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "assets")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := filepath.Join(parent, "outside.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	store := NewDiskStore(root, "/public/uploads")

	// Traversal segments are normalized away; the file outside the asset
	// root is never touched.
	assert.NoError(t, store.Delete("../outside.jpg"))
	assert.NoError(t, store.Delete("brands/../../outside.jpg"))

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
