package service

import (
	"sort"

	"github.com/jgbyrne/plainchant/shared/domain"
)

// BoardStorage defines the read operations the accessors expose to the web
// layer.
type BoardStorage interface {
	GetBoards() ([]domain.Board, error)
	GetBoard(id domain.BoardId) (domain.Board, error)
	GetCatalog(board domain.BoardId) (domain.Catalog, error)
	GetThread(board domain.BoardId, num domain.PostNum) (domain.Thread, error)
	GetPost(board domain.BoardId, num domain.PostNum) (domain.Post, error)
}

// Boards exposes read accessors over the entity store.
type Boards struct {
	storage BoardStorage
}

func NewBoards(storage BoardStorage) *Boards {
	return &Boards{storage: storage}
}

func (b *Boards) Boards() ([]domain.Board, error) {
	return b.storage.GetBoards()
}

func (b *Boards) Board(id domain.BoardId) (domain.Board, error) {
	return b.storage.GetBoard(id)
}

func (b *Boards) Catalog(board domain.BoardId) (domain.Catalog, error) {
	return b.storage.GetCatalog(board)
}

// Thread returns a thread with its replies in display order. The store makes
// no ordering promise, so replies are sorted by post number here.
func (b *Boards) Thread(board domain.BoardId, num domain.PostNum) (domain.Thread, error) {
	thread, err := b.storage.GetThread(board, num)
	if err != nil {
		return domain.Thread{}, err
	}
	sort.Slice(thread.Replies, func(i, j int) bool {
		return thread.Replies[i].Num < thread.Replies[j].Num
	})
	return thread, nil
}

func (b *Boards) Post(board domain.BoardId, num domain.PostNum) (domain.Post, error) {
	return b.storage.GetPost(board, num)
}
