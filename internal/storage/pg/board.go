package pg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jgbyrne/plainchant/shared/domain"
	internal_errors "github.com/jgbyrne/plainchant/shared/errors"
)

func (s *Storage) GetBoards() ([]domain.Board, error) {
	rows, err := s.db.Query(`
	SELECT id, url, title, post_cap, bump_limit, next_post_num
	FROM boards
	ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.Id, &b.Url, &b.Title, &b.PostCap, &b.BumpLimit, &b.NextPostNum); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return boards, nil
}

func (s *Storage) GetBoard(id domain.BoardId) (domain.Board, error) {
	return s.getBoard(s.db, id)
}

func (s *Storage) getBoard(q Querier, id domain.BoardId) (domain.Board, error) {
	var b domain.Board
	err := q.QueryRow(`
	SELECT id, url, title, post_cap, bump_limit, next_post_num
	FROM boards
	WHERE id = $1`, id).Scan(&b.Id, &b.Url, &b.Title, &b.PostCap, &b.BumpLimit, &b.NextPostNum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, internal_errors.NotFound("Board")
		}
		return domain.Board{}, fmt.Errorf("failed to fetch board: %w", err)
	}
	return b, nil
}

// CreateBoard inserts a new board and returns its assigned id. Post
// numbering for the board starts at 1.
func (s *Storage) CreateBoard(board domain.Board) (domain.BoardId, error) {
	var id domain.BoardId
	err := s.db.QueryRow(`
	INSERT INTO boards (url, title, post_cap, bump_limit, next_post_num)
	VALUES ($1, $2, $3, $4, 1)
	RETURNING id`,
		board.Url, board.Title, board.PostCap, board.BumpLimit).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert board: %w", err)
	}
	return id, nil
}

// DeleteBoard removes a board together with every post and thread row it
// owns, in one transaction.
func (s *Storage) DeleteBoard(id domain.BoardId) error {
	return s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM originals WHERE board_id = $1", id); err != nil {
			return fmt.Errorf("failed to delete originals: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM posts WHERE board_id = $1", id); err != nil {
			return fmt.Errorf("failed to delete posts: %w", err)
		}
		result, err := tx.Exec("DELETE FROM boards WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete board: %w", err)
		}
		if deleted, _ := result.RowsAffected(); deleted == 0 {
			return internal_errors.NotFound("Board")
		}
		return nil
	})
}

// claimPostNum assigns the next board-wide post number. Originals and
// replies draw from the same counter, so the row lock taken by this UPDATE
// serializes numbering per board; a rolled-back transaction releases the
// number unused and the next claimer gets it instead.
func claimPostNum(tx *sql.Tx, board domain.BoardId) (domain.PostNum, int, error) {
	var num domain.PostNum
	var bumpLimit int
	err := tx.QueryRow(`
	UPDATE boards
	SET next_post_num = next_post_num + 1
	WHERE id = $1
	RETURNING next_post_num - 1, bump_limit`, board).Scan(&num, &bumpLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, internal_errors.NotFound("Board")
		}
		return 0, 0, fmt.Errorf("failed to claim post number: %w", err)
	}
	return num, bumpLimit, nil
}
