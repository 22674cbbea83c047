package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgbyrne/plainchant/internal/service"
	internal_errors "github.com/jgbyrne/plainchant/shared/errors"
)

// Rack stores uploaded files on the local filesystem, addressed by opaque
// ids. A thumbnail, when one exists, lives next to its file under
// "<id>_thumb.jpg"; whoever generates thumbnails writes them through Store
// under that id.
type Rack struct {
	rootPath string
}

// Ensure Rack implements the interface at compile time.
var _ service.FileRack = (*Rack)(nil)

func New(rootPath string) (*Rack, error) {
	// filepath.Clean guards against roots like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create file rack directory %s: %w", p, err)
	}

	return &Rack{rootPath: p}, nil
}

func thumbId(fileId string) string {
	return fileId + "_thumb.jpg"
}

// path resolves a file id inside the rack root. Ids are generated and never
// contain separators, so anything that could leave the root is rejected.
func (r *Rack) path(fileId string) (string, error) {
	if fileId == "" || fileId == "." || fileId == ".." ||
		strings.ContainsAny(fileId, `/\`) {
		return "", fmt.Errorf("invalid file id %q", fileId)
	}
	return filepath.Join(r.rootPath, fileId), nil
}

func (r *Rack) Store(fileId string, data io.Reader) error {
	fullPath, err := r.path(fileId)
	if err != nil {
		return err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create rack file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		os.Remove(fullPath) // Best effort, ignore error here.
		return fmt.Errorf("failed to write rack file: %w", err)
	}
	return nil
}

func (r *Rack) Get(fileId string) (io.ReadCloser, error) {
	fullPath, err := r.path(fileId)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal_errors.NotFound("File")
		}
		return nil, fmt.Errorf("failed to open rack file: %w", err)
	}
	return file, nil
}

func (r *Rack) GetThumbnail(fileId string) (io.ReadCloser, error) {
	return r.Get(thumbId(fileId))
}

// Delete removes a file and its thumbnail. A file that is already gone is
// not an error, so repeated deletes stay idempotent.
func (r *Rack) Delete(fileId string) error {
	for _, id := range []string{fileId, thumbId(fileId)} {
		fullPath, err := r.path(id)
		if err != nil {
			return err
		}
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete rack file: %w", err)
		}
	}
	return nil
}
