package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jgbyrne/plainchant/shared/domain"
	internal_errors "github.com/jgbyrne/plainchant/shared/errors"
)

// feather columns: (NULL, NULL) anonymous, (1, code) tripcode,
// (2, NULL) moderator, (3, NULL) admin.
func encodeFeather(f domain.Feather) (sql.NullInt16, sql.NullString) {
	switch f.Type {
	case domain.FeatherTrip:
		return sql.NullInt16{Int16: 1, Valid: true}, sql.NullString{String: f.Text, Valid: true}
	case domain.FeatherModerator:
		return sql.NullInt16{Int16: 2, Valid: true}, sql.NullString{}
	case domain.FeatherAdmin:
		return sql.NullInt16{Int16: 3, Valid: true}, sql.NullString{}
	default:
		return sql.NullInt16{}, sql.NullString{}
	}
}

func decodeFeather(featherType sql.NullInt16, featherText sql.NullString) domain.Feather {
	if !featherType.Valid {
		return domain.Feather{}
	}
	switch featherType.Int16 {
	case 1:
		return domain.Feather{Type: domain.FeatherTrip, Text: featherText.String}
	case 2:
		return domain.Feather{Type: domain.FeatherModerator}
	case 3:
		return domain.Feather{Type: domain.FeatherAdmin}
	default:
		return domain.Feather{}
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const originalColumns = `
	p.board_id, p.post_num, p.created_ts, p.ip, COALESCE(p.poster, ''),
	p.body, p.feather_type, p.feather_text,
	COALESCE(p.file_id, ''), COALESCE(p.file_name, ''),
	COALESCE(o.title, ''), o.bump_ts, o.replies, o.img_replies,
	o.pinned, o.archived`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOriginal(row rowScanner) (domain.Original, error) {
	var o domain.Original
	var featherType sql.NullInt16
	var featherText sql.NullString
	err := row.Scan(
		&o.Board, &o.Num, &o.CreatedAt, &o.Ip, &o.Poster,
		&o.Body, &featherType, &featherText,
		&o.FileId, &o.FileName,
		&o.Title, &o.BumpTime, &o.Replies, &o.ImgReplies,
		&o.Pinned, &o.Archived,
	)
	if err != nil {
		return domain.Original{}, err
	}
	o.Feather = decodeFeather(featherType, featherText)
	return o, nil
}

const replyColumns = `
	board_id, post_num, created_ts, ip, COALESCE(poster, ''),
	body, feather_type, feather_text,
	COALESCE(file_id, ''), COALESCE(file_name, ''), orig_num`

func scanReply(row rowScanner) (domain.Reply, error) {
	var r domain.Reply
	var featherType sql.NullInt16
	var featherText sql.NullString
	err := row.Scan(
		&r.Board, &r.Num, &r.CreatedAt, &r.Ip, &r.Poster,
		&r.Body, &featherType, &featherText,
		&r.FileId, &r.FileName, &r.OrigNum,
	)
	if err != nil {
		return domain.Reply{}, err
	}
	r.Feather = decodeFeather(featherType, featherText)
	return r, nil
}

// CreateOriginal assigns the board's next post number to orig (which arrives
// with Num == 0), inserts the posts row and the originals row, and advances
// the counter — all in one transaction. Initial bump time is the creation
// time.
func (s *Storage) CreateOriginal(orig domain.Original) (domain.PostNum, error) {
	var num domain.PostNum
	err := s.inTx(func(tx *sql.Tx) error {
		var err error
		num, _, err = claimPostNum(tx, orig.Board)
		if err != nil {
			return err
		}

		featherType, featherText := encodeFeather(orig.Feather)
		_, err = tx.Exec(`
		INSERT INTO posts (board_id, post_num, created_ts, ip, poster, body,
		                   feather_type, feather_text, file_id, file_name, orig_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)`,
			orig.Board, num, orig.CreatedAt, orig.Ip, nullable(orig.Poster), orig.Body,
			featherType, featherText, nullable(orig.FileId), nullable(orig.FileName))
		if err != nil {
			return fmt.Errorf("failed to insert post row: %w", err)
		}

		_, err = tx.Exec(`
		INSERT INTO originals (board_id, post_num, title, bump_ts, replies, img_replies, pinned, archived)
		VALUES ($1, $2, $3, $4, 0, 0, $5, $6)`,
			orig.Board, num, nullable(orig.Title), orig.CreatedAt, orig.Pinned, orig.Archived)
		if err != nil {
			return fmt.Errorf("failed to insert original row: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return num, nil
}

// CreateReply assigns the next post number from the same board counter as
// originals, inserts the reply row and updates the parent's counters. Bump
// time only advances while the updated reply count stays at or under the
// board's bump limit ("sage" past that point). Any failure rolls the whole
// transaction back, counter claim included.
func (s *Storage) CreateReply(reply domain.Reply) (domain.PostNum, error) {
	var num domain.PostNum
	err := s.inTx(func(tx *sql.Tx) error {
		var bumpLimit int
		var err error
		num, bumpLimit, err = claimPostNum(tx, reply.Board)
		if err != nil {
			return err
		}

		imgDelta := 0
		if reply.HasFile() {
			imgDelta = 1
		}
		var replyCount int
		err = tx.QueryRow(`
		UPDATE originals
		SET replies = replies + 1,
		    img_replies = img_replies + $3,
		    bump_ts = CASE WHEN replies + 1 <= $4 THEN $5 ELSE bump_ts END
		WHERE board_id = $1 AND post_num = $2
		RETURNING replies`,
			reply.Board, reply.OrigNum, imgDelta, bumpLimit, reply.CreatedAt).Scan(&replyCount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Thread")
			}
			return fmt.Errorf("failed to update parent original: %w", err)
		}

		featherType, featherText := encodeFeather(reply.Feather)
		_, err = tx.Exec(`
		INSERT INTO posts (board_id, post_num, created_ts, ip, poster, body,
		                   feather_type, feather_text, file_id, file_name, orig_num)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			reply.Board, num, reply.CreatedAt, reply.Ip, nullable(reply.Poster), reply.Body,
			featherType, featherText, nullable(reply.FileId), nullable(reply.FileName), reply.OrigNum)
		if err != nil {
			return fmt.Errorf("failed to insert reply row: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return num, nil
}

// GetCatalog returns the board's non-archived originals in bump order:
// bump_ts descending, post_num descending on ties so newer threads win.
func (s *Storage) GetCatalog(board domain.BoardId) (domain.Catalog, error) {
	if _, err := s.getBoard(s.db, board); err != nil {
		return domain.Catalog{}, err
	}

	rows, err := s.db.Query(fmt.Sprintf(`
	SELECT %s
	FROM posts p
	JOIN originals o ON (p.board_id, p.post_num) = (o.board_id, o.post_num)
	WHERE p.board_id = $1 AND NOT o.archived
	ORDER BY o.bump_ts DESC, o.post_num DESC`, originalColumns), board)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var originals []domain.Original
	for rows.Next() {
		o, err := scanOriginal(rows)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("failed to scan original: %w", err)
		}
		originals = append(originals, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("rows iteration error: %w", err)
	}

	return domain.Catalog{Board: board, FetchedAt: time.Now().UTC(), Originals: originals}, nil
}

func (s *Storage) GetOriginal(board domain.BoardId, num domain.PostNum) (domain.Original, error) {
	return s.getOriginal(s.db, board, num)
}

func (s *Storage) getOriginal(q Querier, board domain.BoardId, num domain.PostNum) (domain.Original, error) {
	row := q.QueryRow(fmt.Sprintf(`
	SELECT %s
	FROM posts p
	JOIN originals o ON (p.board_id, p.post_num) = (o.board_id, o.post_num)
	WHERE p.board_id = $1 AND p.post_num = $2`, originalColumns), board, num)
	o, err := scanOriginal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Original{}, internal_errors.NotFound("Thread")
		}
		return domain.Original{}, fmt.Errorf("failed to fetch original: %w", err)
	}
	return o, nil
}

func (s *Storage) GetReply(board domain.BoardId, num domain.PostNum) (domain.Reply, error) {
	row := s.db.QueryRow(fmt.Sprintf(`
	SELECT %s
	FROM posts
	WHERE board_id = $1 AND post_num = $2 AND orig_num IS NOT NULL`, replyColumns), board, num)
	r, err := scanReply(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reply{}, internal_errors.NotFound("Reply")
		}
		return domain.Reply{}, fmt.Errorf("failed to fetch reply: %w", err)
	}
	return r, nil
}

// GetPost fetches any post, original or reply, as its bare posts row.
func (s *Storage) GetPost(board domain.BoardId, num domain.PostNum) (domain.Post, error) {
	var p domain.Post
	var featherType sql.NullInt16
	var featherText sql.NullString
	err := s.db.QueryRow(`
	SELECT board_id, post_num, created_ts, ip, COALESCE(poster, ''),
	       body, feather_type, feather_text,
	       COALESCE(file_id, ''), COALESCE(file_name, '')
	FROM posts
	WHERE board_id = $1 AND post_num = $2`, board, num).Scan(
		&p.Board, &p.Num, &p.CreatedAt, &p.Ip, &p.Poster,
		&p.Body, &featherType, &featherText,
		&p.FileId, &p.FileName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Post")
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	p.Feather = decodeFeather(featherType, featherText)
	return p, nil
}

// GetThread returns an original and all of its replies. Reply order is not
// guaranteed; display layers sort by post number.
func (s *Storage) GetThread(board domain.BoardId, num domain.PostNum) (domain.Thread, error) {
	original, err := s.getOriginal(s.db, board, num)
	if err != nil {
		return domain.Thread{}, err
	}

	rows, err := s.db.Query(fmt.Sprintf(`
	SELECT %s
	FROM posts
	WHERE board_id = $1 AND orig_num = $2`, replyColumns), board, num)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	var replies []domain.Reply
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return domain.Thread{}, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return domain.Thread{}, fmt.Errorf("rows iteration error: %w", err)
	}

	return domain.Thread{Original: original, Replies: replies}, nil
}

// GetPostRefsByIp lists every post authored by ip across all boards.
func (s *Storage) GetPostRefsByIp(ip domain.Ip) ([]domain.PostRef, error) {
	rows, err := s.db.Query(`
	SELECT board_id, post_num
	FROM posts
	WHERE ip = $1
	ORDER BY board_id, post_num`, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts by ip: %w", err)
	}
	defer rows.Close()

	var refs []domain.PostRef
	for rows.Next() {
		var ref domain.PostRef
		if err := rows.Scan(&ref.Board, &ref.Num); err != nil {
			return nil, fmt.Errorf("failed to scan post ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return refs, nil
}

// DeleteOriginal removes a thread root and every reply referencing it in one
// transaction, returning the removed rows' file references so the caller can
// release rack files. The store itself never calls the file rack.
func (s *Storage) DeleteOriginal(board domain.BoardId, num domain.PostNum) (domain.DeletedThread, error) {
	var deleted domain.DeletedThread
	err := s.inTx(func(tx *sql.Tx) error {
		// The originals row references the posts row, so it goes first.
		result, err := tx.Exec(`
		DELETE FROM originals WHERE board_id = $1 AND post_num = $2`, board, num)
		if err != nil {
			return fmt.Errorf("failed to delete original row: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return internal_errors.NotFound("Thread")
		}

		var fileId sql.NullString
		err = tx.QueryRow(`
		DELETE FROM posts WHERE board_id = $1 AND post_num = $2
		RETURNING COALESCE(file_id, '')`, board, num).Scan(&fileId)
		if err != nil {
			return fmt.Errorf("failed to delete op post row: %w", err)
		}
		deleted.Original = domain.DeletedPost{Num: num, FileId: fileId.String}

		rows, err := tx.Query(`
		DELETE FROM posts WHERE board_id = $1 AND orig_num = $2
		RETURNING post_num, COALESCE(file_id, '')`, board, num)
		if err != nil {
			return fmt.Errorf("failed to delete reply rows: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var dp domain.DeletedPost
			if err := rows.Scan(&dp.Num, &dp.FileId); err != nil {
				return fmt.Errorf("failed to scan deleted reply: %w", err)
			}
			deleted.Replies = append(deleted.Replies, dp)
		}
		return rows.Err()
	})
	if err != nil {
		return domain.DeletedThread{}, err
	}
	return deleted, nil
}

// DeleteReply removes a single reply and decrements its parent's counters in
// one transaction.
func (s *Storage) DeleteReply(board domain.BoardId, num domain.PostNum) (domain.DeletedPost, error) {
	var deleted domain.DeletedPost
	err := s.inTx(func(tx *sql.Tx) error {
		var origNum domain.PostNum
		var fileId string
		err := tx.QueryRow(`
		DELETE FROM posts
		WHERE board_id = $1 AND post_num = $2 AND orig_num IS NOT NULL
		RETURNING orig_num, COALESCE(file_id, '')`, board, num).Scan(&origNum, &fileId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Reply")
			}
			return fmt.Errorf("failed to delete reply row: %w", err)
		}

		imgDelta := 0
		if fileId != "" {
			imgDelta = 1
		}
		_, err = tx.Exec(`
		UPDATE originals
		SET replies = replies - 1, img_replies = img_replies - $3
		WHERE board_id = $1 AND post_num = $2`, board, origNum, imgDelta)
		if err != nil {
			return fmt.Errorf("failed to update parent counters: %w", err)
		}

		deleted = domain.DeletedPost{Num: num, FileId: fileId}
		return nil
	})
	if err != nil {
		return domain.DeletedPost{}, err
	}
	return deleted, nil
}
