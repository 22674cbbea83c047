package service

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// FileRack is the blob-store collaborator for uploaded files and their
// thumbnails. The core addresses it with opaque ids only; thumbnail
// generation and content validation happen elsewhere.
type FileRack interface {
	Store(fileId string, data io.Reader) error
	Get(fileId string) (io.ReadCloser, error)
	GetThumbnail(fileId string) (io.ReadCloser, error)
	Delete(fileId string) error
}

// UploadFile stores data under a freshly generated opaque id and returns it.
// The caller passes the id on to the submission pipeline as the post's
// attachment reference.
func UploadFile(rack FileRack, data io.Reader) (string, error) {
	fileId := uuid.NewString()
	if err := rack.Store(fileId, data); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return fileId, nil
}
