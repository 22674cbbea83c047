package domain

import "time"

// Ban rows accumulate per IP (renewed bans append rather than update);
// the effective ban for an IP is the row with the latest Expires.
type Ban struct {
	Id      int64
	Ip      Ip
	Expires time.Time
}
