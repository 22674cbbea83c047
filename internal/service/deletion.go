package service

import (
	"errors"
	"net/http"

	"github.com/jgbyrne/plainchant/internal/metrics"
	"github.com/jgbyrne/plainchant/shared/domain"
	internal_errors "github.com/jgbyrne/plainchant/shared/errors"
	"github.com/jgbyrne/plainchant/shared/logger"
)

// DeletionStorage defines the entity-store operations behind deletes and
// capacity eviction.
type DeletionStorage interface {
	GetBoard(id domain.BoardId) (domain.Board, error)
	GetCatalog(board domain.BoardId) (domain.Catalog, error)
	DeleteOriginal(board domain.BoardId, num domain.PostNum) (domain.DeletedThread, error)
	DeleteReply(board domain.BoardId, num domain.PostNum) (domain.DeletedPost, error)
	GetPostRefsByIp(ip domain.Ip) ([]domain.PostRef, error)
}

// Deletion removes threads and replies, releases their rack files, and
// enforces per-board thread capacity.
type Deletion struct {
	storage DeletionStorage
	rack    FileRack
}

func NewDeletion(storage DeletionStorage, rack FileRack) *Deletion {
	return &Deletion{storage: storage, rack: rack}
}

func isNotFound(err error) bool {
	var e *internal_errors.ErrorWithStatusCode
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// releaseFiles best-effort deletes rack files and returns the ids that could
// not be removed. The owning rows are already gone; a rack failure must not
// look like a failed delete.
func (d *Deletion) releaseFiles(fileIds []string) []string {
	var failed []string
	for _, id := range fileIds {
		if id == "" {
			continue
		}
		if err := d.rack.Delete(id); err != nil {
			logger.Log.Warn("failed to delete rack file", "file_id", id, "error", err)
			failed = append(failed, id)
		}
	}
	return failed
}

// DeleteThread removes a thread and its replies from the store, then deletes
// the attached files. The row deletion is committed before any file work; a
// file failure is reported as a CleanupError but the thread stays deleted.
func (d *Deletion) DeleteThread(board domain.BoardId, num domain.PostNum) error {
	deleted, err := d.storage.DeleteOriginal(board, num)
	if err != nil {
		return err
	}
	metrics.PostsDeleted.WithLabelValues("original").Inc()
	metrics.PostsDeleted.WithLabelValues("reply").Add(float64(len(deleted.Replies)))

	fileIds := []string{deleted.Original.FileId}
	for _, reply := range deleted.Replies {
		fileIds = append(fileIds, reply.FileId)
	}
	if failed := d.releaseFiles(fileIds); len(failed) > 0 {
		return &internal_errors.CleanupError{FileIds: failed}
	}
	return nil
}

// DeletePost removes a post of unknown kind: first as a thread root, and if
// no thread exists under that number, as a single reply. Callers such as the
// bulk IP wipe or an admin console rarely know the kind in advance.
func (d *Deletion) DeletePost(board domain.BoardId, num domain.PostNum) error {
	err := d.DeleteThread(board, num)
	if err == nil || !isNotFound(err) {
		return err
	}

	deleted, err := d.storage.DeleteReply(board, num)
	if err != nil {
		return err
	}
	metrics.PostsDeleted.WithLabelValues("reply").Inc()

	if failed := d.releaseFiles([]string{deleted.FileId}); len(failed) > 0 {
		return &internal_errors.CleanupError{FileIds: failed}
	}
	return nil
}

// DeleteAllPostsByIp wipes every post authored by ip, swallowing per-post
// failures: a post may already be gone because its parent thread was deleted
// earlier in the same sweep, or concurrently by someone else. It returns the
// number of posts it attempted to process.
func (d *Deletion) DeleteAllPostsByIp(ip domain.Ip) (int, error) {
	refs, err := d.storage.GetPostRefsByIp(ip)
	if err != nil {
		return 0, err
	}

	for _, ref := range refs {
		if err := d.DeletePost(ref.Board, ref.Num); err != nil {
			logger.Log.Debug("skipping post during ip wipe",
				"board", ref.Board, "post", ref.Num, "error", err)
		}
	}

	logger.Log.Info("ip wipe completed", "ip", ip, "posts_processed", len(refs))
	return len(refs), nil
}

// EnforcePostCap trims a board back to its configured thread capacity. The
// catalog's bump order is the eviction order: everything beyond the cap
// boundary is the oldest-bumped and gets deleted. Cleanup failures are
// collected and reported after all evictions; storage failures stop the
// sweep.
func (d *Deletion) EnforcePostCap(board domain.BoardId) error {
	b, err := d.storage.GetBoard(board)
	if err != nil {
		return err
	}
	catalog, err := d.storage.GetCatalog(board)
	if err != nil {
		return err
	}

	if len(catalog.Originals) <= b.PostCap {
		return nil
	}

	var failed []string
	for _, orig := range catalog.Originals[b.PostCap:] {
		if err := d.DeleteThread(board, orig.Num); err != nil {
			var cleanup *internal_errors.CleanupError
			switch {
			case errors.As(err, &cleanup):
				failed = append(failed, cleanup.FileIds...)
			case isNotFound(err):
				// Evicted concurrently; nothing left to do.
			default:
				return err
			}
		}
		metrics.ThreadsEvicted.Inc()
		logger.Log.Info("thread evicted", "board", board, "post", orig.Num)
	}

	if len(failed) > 0 {
		return &internal_errors.CleanupError{FileIds: failed}
	}
	return nil
}
