// Package assets wraps the external binary-asset store behind a small
// capability: save a file for an {id, url} pair, delete by id.
package assets

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"medsupply/internal/models"
)

// Store is the asset-store capability consumed by the catalog handlers.
type Store interface {
	Save(file *multipart.FileHeader, folder string) (models.Image, error)
	Delete(assetID string) error
}

const maxAssetSize = 5 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// DiskStore persists assets under a public root directory and addresses them
// by a relative path used as the asset id.
type DiskStore struct {
	Root    string
	BaseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Save(file *multipart.FileHeader, folder string) (models.Image, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return models.Image{}, fmt.Errorf("image file extension is required")
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return models.Image{}, fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxAssetSize {
		return models.Image{}, fmt.Errorf("image file too large (max 5MB)")
	}

	filename := uuid.NewString() + extension
	dir := filepath.Join(s.Root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.Image{}, err
	}

	out, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return models.Image{}, err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return models.Image{}, err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return models.Image{}, err
	}

	assetID := path.Join(folder, filename)
	return models.Image{
		AssetID: assetID,
		URL:     s.BaseURL + "/" + assetID,
	}, nil
}

// Delete removes an asset by id. Ids are relative paths, so the target is
// cleaned and checked against the root before anything is touched.
func (s *DiskStore) Delete(assetID string) error {
	trimmed := strings.TrimSpace(assetID)
	if trimmed == "" {
		return nil
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")

	cleanBase := filepath.Clean(s.Root)
	target := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(cleanRel)))
	if target == cleanBase || !strings.HasPrefix(target, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside asset root: %s", assetID)
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
