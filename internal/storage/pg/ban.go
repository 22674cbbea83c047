package pg

import (
	"fmt"

	"github.com/jgbyrne/plainchant/shared/domain"
)

func (s *Storage) GetBans() ([]domain.Ban, error) {
	rows, err := s.db.Query(`
	SELECT id, ip, expires_ts
	FROM bans
	ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bans: %w", err)
	}
	defer rows.Close()

	var bans []domain.Ban
	for rows.Next() {
		var b domain.Ban
		if err := rows.Scan(&b.Id, &b.Ip, &b.Expires); err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return bans, nil
}

// CreateBan appends a ban row. Renewed bans for the same IP accumulate;
// the effective expiry is the maximum across rows.
func (s *Storage) CreateBan(ban domain.Ban) error {
	_, err := s.db.Exec(`
	INSERT INTO bans (ip, expires_ts)
	VALUES ($1, $2)`, ban.Ip, ban.Expires)
	if err != nil {
		return fmt.Errorf("failed to insert ban: %w", err)
	}
	return nil
}

// DeleteBans removes every ban row for ip. Removing zero rows is not an
// error: unbanning an IP that was never banned is a no-op.
func (s *Storage) DeleteBans(ip domain.Ip) error {
	if _, err := s.db.Exec("DELETE FROM bans WHERE ip = $1", ip); err != nil {
		return fmt.Errorf("failed to delete bans: %w", err)
	}
	return nil
}
